package dataset

import (
	"strings"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// Target は推定対象の物理量
type Target string

const (
	// Mass は恒星質量 (列 M, eM1, eM2)
	Mass Target = "M"
	// Radius は恒星半径 (列 R, eR1, eR2)
	Radius Target = "R"
)

// ParseTarget は "M" / "R" (大文字小文字、"mass" / "radius" も可) を Target に変換する
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "mass":
		return Mass, nil
	case "r", "radius":
		return Radius, nil
	default:
		return "", errors.NewValidationError("target", "must be M or R", s)
	}
}

// Columns は値・下側誤差・上側誤差の列名を返す
func (t Target) Columns() []string {
	return triple(string(t))
}

// Feature は観測量
type Feature string

// 観測量の列名
const (
	Teff Feature = "Teff"
	Logg Feature = "logg"
	Meta Feature = "Meta"
	L    Feature = "L"
)

// AllFeatures は列の並び順どおりの全特徴量
var AllFeatures = FeatureSet{Teff, Logg, Meta, L}

// FeatureSet は回帰に使う特徴量の順序付きの組
type FeatureSet []Feature

// ParseFeatureSet は特徴量名のリストを検証する。空なら AllFeatures
func ParseFeatureSet(names []string) (FeatureSet, error) {
	if len(names) == 0 {
		return AllFeatures, nil
	}
	fs := make(FeatureSet, 0, len(names))
	seen := map[Feature]bool{}
	for _, name := range names {
		f, ok := featureByName(name)
		if !ok {
			return nil, errors.NewValidationError("features", "unknown feature", name)
		}
		if seen[f] {
			return nil, errors.NewValidationError("features", "duplicate feature", name)
		}
		seen[f] = true
		fs = append(fs, f)
	}
	return fs, nil
}

func featureByName(name string) (Feature, bool) {
	for _, f := range AllFeatures {
		if strings.EqualFold(string(f), strings.TrimSpace(name)) {
			return f, true
		}
	}
	return "", false
}

// Columns は特徴量ごとの値・下側誤差・上側誤差の列名を順に返す
func (fs FeatureSet) Columns() []string {
	cols := make([]string, 0, 3*len(fs))
	for _, f := range fs {
		cols = append(cols, triple(string(f))...)
	}
	return cols
}

// index は AllFeatures における位置
func (f Feature) index() int {
	for i, g := range AllFeatures {
		if g == f {
			return i
		}
	}
	return -1
}

func triple(name string) []string {
	return []string{name, "e" + name + "1", "e" + name + "2"}
}

// RequiredColumns は読み込み時に必須の18列。目的変数に関わらず両方の
// 目的変数の列を要求し、同じ行が残るようにする
func RequiredColumns() []string {
	cols := append(Radius.Columns(), Mass.Columns()...)
	return append(cols, AllFeatures.Columns()...)
}
