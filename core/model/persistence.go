package model

import (
	"bufio"
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
	"github.com/ulikunitz/xz"
)

// SaveModel はモデルをファイルに保存する
//
// パラメータ:
//   - model: 保存する値。インターフェース型のフィールドを含む場合は gob.Register が必要
//   - filename: 保存先のファイルパス
//
// 使用例:
//
//	reg := linear.NewLinearRegression()
//	// ... モデルの学習 ...
//	err := model.SaveModel(reg, "model.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	defer file.Close()

	if err := SaveModelToWriter(model, file); err != nil {
		return err
	}
	return file.Close()
}

// LoadModel はファイルからモデルを読み込む
//
//	var reg linear.LinearRegression
//	err := model.LoadModel(&reg, "model.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}

// SaveCompressed は gob でエンコードした値を xz 圧縮してファイルに保存する
func SaveCompressed(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	zw, err := xz.NewWriter(buf)
	if err != nil {
		return errors.Wrap(err, "failed to create xz writer")
	}
	if err := SaveModelToWriter(model, zw); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "failed to finish xz stream")
	}
	if err := buf.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write %s", filename)
	}
	return file.Close()
}

// LoadCompressed は SaveCompressed で保存したファイルを読み込む
func LoadCompressed(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer file.Close()

	zr, err := xz.NewReader(bufio.NewReader(file))
	if err != nil {
		return errors.Wrapf(err, "failed to read xz header of %s", filename)
	}
	return LoadModelFromReader(model, zr)
}
