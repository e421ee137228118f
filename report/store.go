package report

import (
	"context"
	"database/sql"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/YuminosukeSato/mrestimator/pkg/errors"
)

// StoreFile は results ディレクトリ内の履歴データベース名
const StoreFile = "results.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	target        TEXT    NOT NULL,
	features      TEXT    NOT NULL,
	train_samples INTEGER NOT NULL,
	test_samples  INTEGER NOT NULL,
	split_seed    INTEGER NOT NULL,
	augment_seed  INTEGER NOT NULL,
	n_train       INTEGER NOT NULL,
	n_test        INTEGER NOT NULL,
	created_at    TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS scores (
	run_id   INTEGER NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	mae      REAL    NOT NULL,
	r2       REAL,
	PRIMARY KEY (run_id, name)
);`

// Run は1回の実行の設定
type Run struct {
	ID           int64
	Target       string
	Features     string
	TrainSamples int
	TestSamples  int
	SplitSeed    uint64
	AugmentSeed  uint64
	NTrain       int
	NTest        int
	CreatedAt    time.Time
}

// Score は1モデルのテスト結果。R2 が計算できない場合は NaN
type Score struct {
	Name string
	MAE  float64
	R2   float64
}

// nullFloat は NaN を NULL として保存する
func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

// Store は実行ごとの MAE/R2 を sqlite に蓄積する
type Store struct {
	db *sql.DB
}

// OpenStore は path のデータベースを開き、必要ならテーブルを作る
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open results store %s", path)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to initialize results store %s", path)
	}
	return &Store{db: db}, nil
}

// Close はデータベースを閉じる
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun は実行とそのスコアを1トランザクションで保存し、実行 ID を返す
func (s *Store) RecordRun(ctx context.Context, run Run, scores []Score) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (target, features, train_samples, test_samples, split_seed, augment_seed, n_train, n_test, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Target, run.Features, run.TrainSamples, run.TestSamples,
		int64(run.SplitSeed), int64(run.AugmentSeed), run.NTrain, run.NTest,
		run.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read run id")
	}

	for i, sc := range scores {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scores (run_id, position, name, mae, r2) VALUES (?, ?, ?, ?, ?)`,
			id, i, sc.Name, sc.MAE, nullFloat(sc.R2)); err != nil {
			return 0, errors.Wrapf(err, "failed to insert score for %s", sc.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit run")
	}
	return id, nil
}

// Scores は実行 ID のスコアを登録順に返す
func (s *Store) Scores(ctx context.Context, runID int64) ([]Score, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, mae, r2 FROM scores WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query scores")
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var (
			sc Score
			r2 sql.NullFloat64
		)
		if err := rows.Scan(&sc.Name, &sc.MAE, &r2); err != nil {
			return nil, errors.Wrap(err, "failed to scan score")
		}
		sc.R2 = math.NaN()
		if r2.Valid {
			sc.R2 = r2.Float64
		}
		out = append(out, sc)
	}
	return out, errors.WithStack(rows.Err())
}

// Runs は target の実行を新しい順に返す
func (s *Store) Runs(ctx context.Context, target string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, features, train_samples, test_samples, split_seed, augment_seed, n_train, n_test, created_at
		 FROM runs WHERE target = ? ORDER BY id DESC`, target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                  Run
			splitSeed, augSeed int64
			created            string
		)
		if err := rows.Scan(&r.ID, &r.Target, &r.Features, &r.TrainSamples, &r.TestSamples,
			&splitSeed, &augSeed, &r.NTrain, &r.NTest, &created); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		r.SplitSeed = uint64(splitSeed)
		r.AugmentSeed = uint64(augSeed)
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrapf(err, "invalid created_at %q", created)
		}
		out = append(out, r)
	}
	return out, errors.WithStack(rows.Err())
}

// BestScore は target の全実行の中で name の最小 MAE を返す
func (s *Store) BestScore(ctx context.Context, target, name string) (float64, bool, error) {
	var mae sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(s.mae) FROM scores s JOIN runs r ON r.id = s.run_id
		 WHERE r.target = ? AND s.name = ?`, target, name).Scan(&mae)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to query best score")
	}
	return mae.Float64, mae.Valid, nil
}
