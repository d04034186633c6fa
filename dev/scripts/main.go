package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"slices"
)

func printScripts() {
	fmt.Println("Scripts:")
	for _, key := range slices.Sorted(maps.Keys(scriptMap)) {
		fmt.Println("\t" + key)
	}
}

func main() {
	flag.Parse()

	script := flag.Arg(0)
	fn, ok := scriptMap[script]
	if !ok {
		fmt.Printf(
			"you must specify a valid script, '%s' is not a valid script.\n",
			script,
		)
		printScripts()
		os.Exit(1)
	}

	fn()
}

func cmd(name string, args ...string) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fullCmd := name
	for _, a := range args {
		fullCmd += " "
		fullCmd += a
	}

	fmt.Printf("$ %s\n", fullCmd)
	err := cmd.Run()
	if err != nil {
		os.Exit(1)
	}
}

var scriptMap = map[string]func(){
	"dev:apply_db_schema": migrateDb,
	"dev:collect":         collect,
	"dev:serve":           serve,
}

func migrateDb() {
	cmd(
		"atlas", "schema", "apply",
		"-u", "sqlite://dev/.state/influence.db",
		"--to", "file://lib/scorestore/db/schema.sql",
		"--dev-url", "sqlite://dev?mode=memory",
	)
}

func collect() {
	cmd(
		"go", "run", "./cmd/influence-cli",
		"--config", "dev/.state/roster.json5",
		"--db", "dev/.state/influence.db",
		"collect", "--out", "dev/.state/reports", "--dump-http", "dev/.state/resty",
	)
}

func serve() {
	cmd("go", "run", "./cmd/influenced", "-v", "-config", "dev/.state/roster.json5")
}
