// Command pegc is the interactive front end for parsekit: load a grammar
// file or type grammar source at a REPL, and see the resulting grammar
// object model or trace output. It offers a bufio-scanner REPL with a
// small set of command verbs, built on cobra subcommands and a
// koanf-backed config layer.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	parsekit "github.com/ritamzico/parsekit"
	"github.com/ritamzico/parsekit/internal/render"
)

const helpText = `pegc interactive REPL

Commands:
  parse <file>   Parse a grammar file and print its object model as JSON
  load <file>    Parse a grammar file and keep it as the active grammar
  show           Print the active grammar's object model as JSON
  help           Show this help message
  exit / quit    Exit the REPL

Any other input is treated as inline grammar source and parsed directly.
`

// cliConfig holds pegc's runtime knobs: a YAML file overlaid by
// command-line flags via koanf. pegserver loads its own serverConfig.
type cliConfig struct {
	Trace bool `koanf:"trace"`
}

func loadConfig(cmd *cobra.Command) cliConfig {
	var flags *pflag.FlagSet = cmd.Flags()
	k := koanf.New(".")
	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read config %q: %v\n", path, err)
		}
	}
	_ = k.Load(posflag.Provider(flags, ".", k), nil)
	var cfg cliConfig
	_ = k.Unmarshal("", &cfg)
	return cfg
}

func main() {
	root := &cobra.Command{
		Use:   "pegc",
		Short: "parsekit grammar parser CLI",
	}
	root.PersistentFlags().String("config", "", "path to a YAML config file")
	root.PersistentFlags().Bool("trace", false, "emit rule-stack trace to stderr")

	root.AddCommand(parseCmd(), replCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "parse a grammar file and print its object model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return parseAndPrint(cmd, string(src))
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive grammar REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			runREPL()
			return nil
		},
	}
}

func parseAndPrint(cmd *cobra.Command, src string) error {
	cfg := loadConfig(cmd)

	var g *parsekit.Grammar
	var err error
	if cfg.Trace {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		g, err = parsekit.ParseGrammarTraced(src, render.ZerologTraceSink{Logger: logger})
	} else {
		g, err = parsekit.ParseGrammar(src)
	}
	if err != nil {
		return err
	}

	b, err := parsekit.MarshalGrammarJSON(g)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}

func runREPL() {
	var active *parsekit.Grammar

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("pegc — parsekit grammar REPL")
	fmt.Println(`Type "help" for available commands.`)
	fmt.Println()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch strings.ToLower(parts[0]) {
		case "exit", "quit":
			return
		case "help":
			fmt.Print(helpText)
		case "show":
			if active == nil {
				fmt.Fprintln(os.Stderr, "no active grammar — use 'load' or 'parse' first")
				continue
			}
			b, err := parsekit.MarshalGrammarJSON(active)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Println(string(b))
		case "load", "parse":
			if len(parts) < 2 {
				fmt.Fprintf(os.Stderr, "usage: %s <file>\n", parts[0])
				continue
			}
			src, err := os.ReadFile(parts[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			g, err := parsekit.ParseGrammar(string(src))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			active = g
			fmt.Printf("parsed %q: %d rule(s)\n", parts[1], len(g.Rules))
		default:
			g, err := parsekit.ParseGrammar(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			active = g
			fmt.Printf("parsed: %d rule(s)\n", len(g.Rules))
		}
	}
}
