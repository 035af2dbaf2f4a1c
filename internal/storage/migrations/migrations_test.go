package migrations

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x Int64);

-- second
CREATE TABLE b (y String DEFAULT 'it''s;fine')
ENGINE = MergeTree();
`
	stmts, err := Split(input)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x Int64)" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
	if !strings.HasPrefix(stmts[1], "CREATE TABLE b") || !strings.Contains(stmts[1], "'it''s;fine'") {
		t.Errorf("unexpected second statement: %q", stmts[1])
	}
}

func TestSplit_UnterminatedString(t *testing.T) {
	if _, err := Split("SELECT 'open;"); !errors.Is(err, errUnterminatedString) {
		t.Errorf("expected unterminated string error, got %v", err)
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := DatabaseFromDSN("clickhouse://user:pw@localhost:9000/walletpnl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "walletpnl" {
		t.Errorf("expected walletpnl, got %s", db)
	}

	if _, err := DatabaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}

func TestLoad(t *testing.T) {
	for _, d := range []Dialect{Postgres, ClickHouse} {
		migrations, err := Load(d)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", d, err)
		}
		if len(migrations) == 0 {
			t.Errorf("no %s migrations embedded", d)
		}
		for i := 1; i < len(migrations); i++ {
			if migrations[i-1].Name >= migrations[i].Name {
				t.Errorf("%s migrations out of order: %s before %s", d, migrations[i-1].Name, migrations[i].Name)
			}
		}
	}

	if _, err := Load("sqlite"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestApply(t *testing.T) {
	var applied []string
	err := Apply(context.Background(), Postgres, func(_ context.Context, stmt string) error {
		applied = append(applied, stmt)
		return nil
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(applied) == 0 || !strings.Contains(applied[0], "CREATE TABLE") {
		t.Errorf("unexpected statements: %q", applied)
	}

	boom := errors.New("boom")
	err = Apply(context.Background(), ClickHouse, func(context.Context, string) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected exec error, got %v", err)
	}
}
