package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMAE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred: mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			want:  0.0,
		},
		{
			name:  "mixed signs",
			yTrue: mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred: mat.NewVecDense(4, []float64{1.5, 1.0, 3.0, 6.0}),
			want:  (0.5 + 1.0 + 0.0 + 2.0) / 4,
		},
		{
			name:  "constant predictor",
			yTrue: mat.NewVecDense(3, []float64{0.8, 1.0, 1.5}),
			yPred: mat.NewVecDense(3, []float64{1.0, 1.0, 1.0}),
			want:  (0.2 + 0.0 + 0.5) / 3,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MAE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("MAE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("MAE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMAEMatrix(t *testing.T) {
	yTrue := mat.NewDense(3, 1, []float64{1, 2, 3})
	yPred := mat.NewDense(3, 1, []float64{2, 2, 2})

	got, err := MAEMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("MAEMatrix() unexpected error: %v", err)
	}
	if math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("MAEMatrix() = %v, want %v", got, 2.0/3.0)
	}

	if _, err := MAEMatrix(yTrue, mat.NewDense(3, 2, nil)); err == nil {
		t.Error("MAEMatrix() should reject non column inputs")
	}
}

func TestMSE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	got, err := MSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MSE() unexpected error: %v", err)
	}
	if math.Abs(got-0.25) > 1e-12 {
		t.Errorf("MSE() = %v, want 0.25", got)
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0, false},
		{"mean predictor", []float64{1, 2, 3}, []float64{2, 2, 2}, 0.0, false},
		{"no variance", []float64{2, 2, 2}, []float64{1, 2, 3}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2ScoreMatrix(
				mat.NewDense(len(tt.yTrue), 1, tt.yTrue),
				mat.NewDense(len(tt.yPred), 1, tt.yPred),
			)
			if (err != nil) != tt.wantErr {
				t.Fatalf("R2Score() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("R2Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkMAE(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.5)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MAE(yTrue, yPred)
	}
}
