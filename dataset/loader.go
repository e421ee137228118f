package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// missingTokens は欠損とみなすセルの値 (小文字で比較)
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"nan":  true,
	"null": true,
	"n/a":  true,
}

// Load はタブ区切りのファイルを読み込む。
// ファイルが読めない、または必須列がない場合は ErrDataUnavailable をラップしたエラーを返す
func Load(path string, target Target) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataError(path, "cannot open file", err)
	}
	defer file.Close()

	return read(file, path, target)
}

// Read は io.Reader からタブ区切りのデータを読み込む
func Read(r io.Reader, target Target) (*Dataset, error) {
	return read(r, "reader", target)
}

func read(r io.Reader, source string, target Target) (*Dataset, error) {
	if target != Mass && target != Radius {
		return nil, errors.NewValidationError("target", "must be M or R", string(target))
	}

	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewDataError(source, "empty input", nil)
	}
	if err != nil {
		return nil, errors.NewDataError(source, "cannot read header", err)
	}

	required := RequiredColumns()
	index, err := columnIndex(source, header, required)
	if err != nil {
		return nil, err
	}

	var rows [][]float64
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.NewDataError(source, "malformed row", err)
		}

		row := make([]float64, len(required))
		for j, col := range required {
			raw := ""
			if idx := index[col]; idx < len(record) {
				raw = strings.TrimSpace(record[idx])
			}
			if missingTokens[strings.ToLower(raw)] {
				row[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.NewDataError(source,
					"unparsable value in column "+col+" at line "+strconv.Itoa(line), err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	complete := DropIncomplete(rows)
	if len(complete) == 0 {
		return nil, errors.NewDataError(source, "no complete records", nil)
	}

	records := make([]Record, len(complete))
	for i, row := range complete {
		rec, err := toRecord(row)
		if err != nil {
			return nil, errors.NewDataError(source, err.Error(), nil)
		}
		records[i] = rec
	}

	return &Dataset{
		Source:     source,
		Records:    records,
		Target:     target,
		FeatureSet: AllFeatures,
		Dropped:    len(rows) - len(complete),
	}, nil
}

func columnIndex(source string, header, required []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewDataError(source, "missing required columns: "+strings.Join(missing, ", "), nil)
	}
	return index, nil
}

// DropIncomplete は NaN を含む行を除いた新しいスライスを返す。入力は変更しない
func DropIncomplete(rows [][]float64) [][]float64 {
	out := make([][]float64, 0, len(rows))
	for _, row := range rows {
		complete := true
		for _, v := range row {
			if math.IsNaN(v) {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, row)
		}
	}
	return out
}

// toRecord は RequiredColumns の順に並んだ行を Record に変換する
func toRecord(row []float64) (Record, error) {
	m := func(off int) Measurement {
		return Measurement{Value: row[off], Lower: row[off+1], Upper: row[off+2]}
	}
	rec := Record{Radius: m(0), Mass: m(3)}
	for i := range rec.Features {
		rec.Features[i] = m(6 + 3*i)
	}

	names := RequiredColumns()
	for j := 0; j < len(row); j += 3 {
		if row[j+1] < 0 || row[j+2] < 0 {
			return Record{}, errors.Newf("negative uncertainty bound for %s", names[j])
		}
	}
	return rec, nil
}
