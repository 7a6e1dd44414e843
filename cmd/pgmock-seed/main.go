package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	faker "github.com/go-faker/faker/v4"
	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/engine"
	"github.com/zoravur/pgmock/pkg/prng"
)

// columnValue fabricates one fixture value for a column, guessing a
// faker generator from the column name and otherwise falling back to a
// random word; this is fixture data, not a schema-aware type mapper.
func columnValue(column string) string {
	lower := strings.ToLower(column)
	switch {
	case strings.Contains(lower, "email"):
		return faker.Email()
	case strings.Contains(lower, "name"):
		return faker.Name()
	case strings.Contains(lower, "phone"):
		return faker.Phonenumber()
	case strings.Contains(lower, "id") || strings.Contains(lower, "count") || strings.Contains(lower, "age"):
		return strconv.Itoa(1 + (len(faker.Word()) % 97))
	default:
		return faker.Word()
	}
}

func quoted(column, value string) string {
	if _, err := strconv.Atoi(value); err == nil && !strings.Contains(strings.ToLower(column), "name") {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func buildInserts(schema, table string, columns []string, count int) []string {
	var out []string
	for i := 0; i < count; i++ {
		vals := make([]string, len(columns))
		for j, col := range columns {
			vals[j] = quoted(col, columnValue(col))
		}
		out = append(out, fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s);",
			schema, table, strings.Join(columns, ", "), strings.Join(vals, ", ")))
	}
	return out
}

func main() {
	schema := flag.String("schema", "public", "target schema")
	table := flag.String("table", "", "target table name (required)")
	columns := flag.String("columns", "", "comma-separated column list (required)")
	count := flag.Int("count", 10, "number of rows to generate")
	addr := flag.String("addr", "", "pgmock HTTP address to POST the inserts to; if empty, runs against an embedded in-process database and prints the resulting catalog")
	seed := flag.Int64("seed", 0, "deterministic PRNG seed for faker output; 0 uses faker's default crypto source")
	flag.Parse()

	if *table == "" || *columns == "" {
		log.Fatal("both --table and --columns are required")
	}
	if *seed != 0 {
		faker.SetCryptoSource(prng.New(*seed))
	}
	cols := strings.Split(*columns, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	stmts := buildInserts(*schema, *table, cols, *count)

	if *addr != "" {
		for _, stmt := range stmts {
			if err := postQuery(*addr, stmt); err != nil {
				log.Fatalf("seed insert failed: %v\nSQL: %s", err, stmt)
			}
		}
		fmt.Printf("seeded %d rows into %s.%s via %s\n", *count, *schema, *table, *addr)
		return
	}

	db := engine.NewMockDatabase(zap.NewNop())
	create := fmt.Sprintf("CREATE TABLE %s.%s (%s);", *schema, *table, strings.Join(cols, " text, ")+" text")
	if _, err := db.Execute(create); err != nil {
		log.Fatalf("seed create failed: %v", err)
	}
	for _, stmt := range stmts {
		if _, err := db.Execute(stmt); err != nil {
			log.Fatalf("seed insert failed: %v\nSQL: %s", err, stmt)
		}
	}

	enc := json.NewEncoder(newlineWriter{})
	enc.SetIndent("", "  ")
	enc.Encode(db.Snapshot())
}

func postQuery(addr, sql string) error {
	resp, err := http.Post(strings.TrimRight(addr, "/")+"/api/query", "text/plain", bytes.NewBufferString(sql))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

type newlineWriter struct{}

func (newlineWriter) Write(p []byte) (int, error) {
	return fmt.Print(string(p))
}
