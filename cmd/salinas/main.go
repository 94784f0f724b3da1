package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"salinas/internal/engine"
	"salinas/internal/repl"
	"salinas/internal/util"
	"strings"
)

var (
	// Version is set at build time with -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configFile  string
	expression  string
	decimals    int
	precision   int
	seed        int64
	sqlEnabled  bool
	debugAST    bool
	debugTxtAST bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&expression, "e", "", "Evaluate the expression and print its value")
	// evaluator config
	flag.StringVar(&configFile, "config", "", "Load configuration from a TOML or YAML file")
	flag.IntVar(&decimals, "decimals", util.DefaultDecimals, "Decimal places shown when printing numbers")
	flag.IntVar(&precision, "precision", util.DefaultPrecision, "Decimal places kept by division")
	flag.Int64Var(&seed, "seed", util.DefaultSeed, "Seed of the RANDOM generator; negative seeds from entropy")
	flag.BoolVar(&sqlEnabled, "sql", false, "Enable the SQL functions")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Render the AST as a JSON file")
	flag.BoolVar(&debugTxtAST, "debug-txt-ast", false, "Render the AST as a text file")
	// log config
	flag.StringVar(&logLevel, "log-level", "NONE", "Log level: debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {

	flag.Parse()

	// Creates a new Logger that uses a JSONHandler to write to the log writer
	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(logLevel),
	}
	logWriter := configureLogWriter()
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	if version {
		printVersion()
		return
	}

	if help {
		printHelp()
		return
	}

	config, err := buildConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	e := engine.New(config)

	switch {
	case expression != "":
		os.Exit(runSource(e, "", expression, true))
	case flag.NArg() > 0:
		filename := flag.Arg(0)
		src, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not read '%s': %v\n", filename, err)
			os.Exit(2)
		}
		os.Exit(runSource(e, filename, string(src), false))
	default:
		if err := repl.Start(e, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// buildConfiguration layers explicitly set flags over the configuration file,
// which in turn is layered over the defaults.
func buildConfiguration() (util.Configuration, error) {
	config := util.DefaultConfiguration()
	if configFile != "" {
		loaded, err := util.LoadConfiguration(configFile)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "decimals":
			config.Decimals = int32(decimals)
		case "precision":
			config.Precision = int32(precision)
		case "seed":
			config.Seed = seed
		case "sql":
			config.SQLEnabled = sqlEnabled
		case "debug-ast":
			config.DebugJsonAST = debugAST
		case "debug-txt-ast":
			config.DebugTxtAST = debugTxtAST
		}
	})

	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit
	if flag.NArg() > 0 {
		if dir, err := filepath.Abs(filepath.Dir(flag.Arg(0))); err == nil {
			config.CurrentDirectory = dir
		}
	}
	return config, config.Validate()
}

// runSource evaluates src and returns the process exit code. The value of an
// expression is printed; a script prints only what it outputs itself.
func runSource(e *engine.Engine, filename, src string, printResult bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	script, err := e.Compile(filename, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, engine.FormatError(err, src))
		return 1
	}

	result, err := script.Run(ctx)
	if err != nil {
		slog.Error("script failed",
			slog.String("filename", filename),
			slog.Any("error", err))
		fmt.Fprintln(os.Stderr, engine.FormatError(err, src))
		return 1
	}
	if printResult {
		fmt.Println(result.Display(e.Config.Decimals))
	}
	return 0
}

func configureLogWriter() *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		// Create parent directories if they don't exist
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("salinas version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: salinas [options] [filename]

Options:
  -e <expr>            Evaluate the expression and print its value.
  -config <path>       Load configuration from a .toml, .yaml or .yml file.
  -decimals <n>        Decimal places shown when printing numbers. Default is %d.
  -precision <n>       Decimal places kept by division. Default is %d.
  -seed <n>            Seed of the RANDOM generator. Negative seeds use entropy.
  -sql                 Enable SQLCONNECT and the other SQL functions.
  -debug-ast           Render the AST as a JSON file next to the script.
  -debug-txt-ast       Render the AST as a text file next to the script.
  -help                Display this help information and exit.
  -version             Display version information and exit.
  -log-level <level>   Set the log level: debug, info, warn, error, none. Default is 'none'.
  -log-file <path>     Specify a log file to write logs. Default is stderr.

Details:
Without a filename or -e, salinas starts an interactive REPL. Command history
is kept in ~/.salinas_history.

Examples:
  salinas                         Start the REPL
  salinas report.prg              Execute the provided script
  salinas -e "2 ** 10"            Print 1024.00
  salinas -sql -config db.toml    Start the REPL with SQL functions enabled

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, util.DefaultDecimals, util.DefaultPrecision, Version, BuildDate, Commit)
}

// logLevelNone is above every level slog emits, silencing the logger.
const logLevelNone = slog.Level(12)

func logLevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return logLevelNone
	}
}
