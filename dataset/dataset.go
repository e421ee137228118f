// Package dataset は不確かさ付きの恒星観測データを読み込む
package dataset

import (
	"gonum.org/v1/gonum/mat"
)

// Measurement は観測値とその下側・上側の誤差
type Measurement struct {
	Value float64
	Lower float64
	Upper float64
}

// Interval は [Value-Lower, Value+Upper] を返す
func (m Measurement) Interval() (lo, hi float64) {
	return m.Value - m.Lower, m.Value + m.Upper
}

// Record は1つの恒星の観測。Features は AllFeatures の順
type Record struct {
	Features [4]Measurement
	Mass     Measurement
	Radius   Measurement
}

// Feature は指定した特徴量の観測を返す
func (r Record) Feature(f Feature) Measurement {
	return r.Features[f.index()]
}

// Target は指定した目的変数の観測を返す
func (r Record) Target(t Target) Measurement {
	if t == Radius {
		return r.Radius
	}
	return r.Mass
}

// Dataset は欠損のない Record の列と、使用する目的変数・特徴量の組
type Dataset struct {
	Source     string
	Records    []Record
	Target     Target
	FeatureSet FeatureSet
	// Dropped は欠損のため除外した行数
	Dropped int
}

// Len は Record の数を返す
func (d *Dataset) Len() int {
	return len(d.Records)
}

// WithFeatures は特徴量の組だけを差し替えたコピーを返す。Records は共有する
func (d *Dataset) WithFeatures(fs FeatureSet) *Dataset {
	c := *d
	c.FeatureSet = fs
	return &c
}

// Features は n x 3*len(FeatureSet) の (値, 下側誤差, 上側誤差) 行列を返す
func (d *Dataset) Features() *mat.Dense {
	fs := d.FeatureSet
	if len(fs) == 0 {
		fs = AllFeatures
	}
	out := mat.NewDense(len(d.Records), 3*len(fs), nil)
	for i, r := range d.Records {
		for j, f := range fs {
			m := r.Feature(f)
			out.Set(i, 3*j, m.Value)
			out.Set(i, 3*j+1, m.Lower)
			out.Set(i, 3*j+2, m.Upper)
		}
	}
	return out
}

// Targets は n x 3 の目的変数の (値, 下側誤差, 上側誤差) 行列を返す
func (d *Dataset) Targets() *mat.Dense {
	out := mat.NewDense(len(d.Records), 3, nil)
	for i, r := range d.Records {
		m := r.Target(d.Target)
		out.Set(i, 0, m.Value)
		out.Set(i, 1, m.Lower)
		out.Set(i, 2, m.Upper)
	}
	return out
}
