package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/app"
	"github.com/zoravur/pgmock/internal/engine"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP/WS listen address")
	serve := flag.Bool("serve", false, "run the HTTP+WS server instead of the REPL")
	quiet := flag.Bool("quiet", false, "disable structured (zap) logging; REPL output only")
	flag.Parse()

	var logger *zap.Logger
	if *quiet {
		logger = zap.NewNop()
	} else {
		l, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("logger init: %v", err)
		}
		logger = l
	}
	defer logger.Sync()

	if *serve {
		srv := app.NewServer(*addr, logger)
		if err := srv.Run(); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	repl(engine.NewMockDatabase(logger))
}

// repl reads one statement (or ';'-separated batch) per line from stdin
// and prints its results, distinguishing a clean EOF from an interrupt so
// the exit message tells the two apart.
func repl(db *engine.MockDatabase) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("pgmock> ")
	for {
		done := make(chan bool, 1)
		var line string
		var ok bool
		go func() {
			ok = scanner.Scan()
			done <- true
		}()

		select {
		case <-interrupt:
			fmt.Println("\ninterrupted")
			return
		case <-done:
		}
		if !ok {
			if err := scanner.Err(); err != nil && err != io.EOF {
				fmt.Println("\nread error:", err)
			} else {
				fmt.Println("\nEOF, exiting")
			}
			return
		}
		line = scanner.Text()
		if strings.TrimSpace(line) == "" {
			fmt.Print("pgmock> ")
			continue
		}

		results, err := db.Execute(line)
		if err != nil {
			fmt.Println("error:", err)
		} else {
			for _, rs := range results {
				printResultSet(rs)
			}
		}
		fmt.Print("pgmock> ")
	}
}

func printResultSet(rs *engine.ResultSet) {
	if len(rs.Columns) == 0 {
		fmt.Printf("OK (%d rows affected)\n", rs.RowsAffected)
		return
	}
	fmt.Println(strings.Join(rs.Columns, " | "))
	for _, row := range rs.Native() {
		parts := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				parts[i] = "NULL"
			} else {
				parts[i] = fmt.Sprintf("%v", v)
			}
		}
		fmt.Println(strings.Join(parts, " | "))
	}
}
