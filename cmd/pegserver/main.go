// Command pegserver exposes grammar parsing over HTTP: POST a grammar
// description to /parse and receive its object model as JSON, or a 422
// with a wrapped diagnostic on a syntax error. Built on a bare net/http
// mux with CORS middleware.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	parsekit "github.com/ritamzico/parsekit"
	"github.com/ritamzico/parsekit/internal/render"
)

// serverConfig holds pegserver's runtime knobs: a YAML file overlaid by
// command-line flags via koanf, the same config layer cmd/pegc uses, but
// loaded independently here since a plain HTTP server has no cobra
// command tree to hang persistent flags off of.
type serverConfig struct {
	Port  int  `koanf:"port"`
	Trace bool `koanf:"trace"`
}

func loadServerConfig() serverConfig {
	fs := pflag.NewFlagSet("pegserver", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Int("port", 8080, "port to listen on")
	fs.Bool("trace", false, "emit a rule-stack trace to stderr for every parse")
	fs.Parse(os.Args[1:])

	k := koanf.New(".")
	if *configPath != "" {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read config %q: %v\n", *configPath, err)
		}
	}
	_ = k.Load(posflag.Provider(fs, ".", k), nil)

	var cfg serverConfig
	_ = k.Unmarshal("", &cfg)
	return cfg
}

var allowedOrigins = []string{
	"http://localhost:5173",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

func parseHandler(logger zerolog.Logger, trace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var body struct {
			Source string `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.Source == "" {
			writeError(w, http.StatusBadRequest, "missing field: source")
			return
		}

		var g *parsekit.Grammar
		var err error
		if trace {
			g, err = parsekit.ParseGrammarTraced(body.Source, render.ZerologTraceSink{Logger: logger})
		} else {
			g, err = parsekit.ParseGrammar(body.Source)
		}
		if err != nil {
			wrapped := oops.
				Code("grammar_parse_failed").
				With("source_len", len(body.Source)).
				Wrap(err)
			logger.Warn().Err(wrapped).Msg("grammar parse failed")
			writeError(w, http.StatusUnprocessableEntity, wrapped.Error())
			return
		}

		b, err := parsekit.MarshalGrammarJSON(g)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	}
}

func main() {
	cfg := loadServerConfig()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	mux := http.NewServeMux()
	mux.Handle("/parse", parseHandler(logger, cfg.Trace))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info().Str("addr", addr).Bool("trace", cfg.Trace).Msg("pegserver listening")
	handler := loggingMiddleware(logger, corsMiddleware(mux))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
