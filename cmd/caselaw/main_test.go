package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findStringFlag(flags []cli.Flag, name string) *cli.StringFlag {
	for _, f := range flags {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == name {
			return sf
		}
	}
	return nil
}

func findIntFlag(flags []cli.Flag, name string) *cli.IntFlag {
	for _, f := range flags {
		if intf, ok := f.(*cli.IntFlag); ok && intf.Name == name {
			return intf
		}
	}
	return nil
}

func TestDatabaseFlags(t *testing.T) {
	flags := databaseFlags()

	t.Run("db has a default path", func(t *testing.T) {
		dbFlag := findStringFlag(flags, "db")
		require.NotNil(t, dbFlag)
		assert.Equal(t, "./caselaw_db", dbFlag.Value)
		assert.Contains(t, dbFlag.EnvVars, "CASELAW_DB")
	})

	t.Run("ai-host reads from environment", func(t *testing.T) {
		hostFlag := findStringFlag(flags, "ai-host")
		require.NotNil(t, hostFlag)
		assert.Contains(t, hostFlag.EnvVars, "CASELAW_AI_HOST")
	})

	t.Run("model flags have no defaults", func(t *testing.T) {
		for _, name := range []string{"embedding-model", "scorer-model"} {
			modelFlag := findStringFlag(flags, name)
			require.NotNil(t, modelFlag)
			assert.Empty(t, modelFlag.Value)
		}
	})
}

func TestSetupLogger(t *testing.T) {
	newContext := func(level string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("log-level", level, "")
		return cli.NewContext(cli.NewApp(), set, nil)
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
			assert.NoError(t, setupLogger(newContext(level)), level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := setupLogger(newContext("verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestSearchCommandRequiresQuery(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "search",
				Action: searchCommand,
				Flags:  databaseFlags(),
			},
		},
	}

	err := app.Run([]string{"caselaw", "search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}
