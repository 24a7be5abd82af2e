package main

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/czh0526/btc-descriptors/internal/cfgutil"
	"github.com/czh0526/btc-descriptors/netparams"
	"github.com/czh0526/btc-descriptors/snacl"
	"github.com/czh0526/btc-descriptors/wallet"
	"github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "btcdescriptors.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "btcdescriptors.log"
	defaultDBTimeout      = 60 * time.Second

	checksumSubCmd = "checksum"
	infoSubCmd     = "info"
	deriveSubCmd   = "derive"
	createSubCmd   = "create"
	serveSubCmd    = "serve"
	nextSubCmd     = "next"
	importSubCmd   = "import"
)

var (
	defaultAppDataDir = btcutil.AppDataDir("btcdescriptors", false)
	defaultConfigFile = filepath.Join(defaultAppDataDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultAppDataDir, defaultLogDirname)
)

type descriptorArgs struct {
	Descriptor string `positional-arg-name:"descriptor" required:"yes"`
}

type checksumCommand struct {
	Args descriptorArgs `positional-args:"yes" required:"yes"`
}

type infoCommand struct {
	Args descriptorArgs `positional-args:"yes" required:"yes"`
}

type deriveCommand struct {
	Chain string         `long:"chain" choice:"external" choice:"internal" description:"Multipath element to derive from"`
	Combo string         `long:"combo" choice:"pk" choice:"pkh" choice:"wpkh" choice:"sh_wpkh" description:"Script to derive from a combo descriptor"`
	From  uint32         `long:"from" description:"First address index"`
	Count uint32         `long:"count" default:"10" description:"Number of addresses to derive"`
	Args  descriptorArgs `positional-args:"yes" required:"yes"`
}

type createCommand struct {
	WatchingOnly bool `long:"watchingonly" description:"Create a wallet without a seed that only holds imported descriptors"`
}

type serveCommand struct {
	RPCListeners  []string `long:"rpclisten" description:"Listen for gRPC connections on this interface/port (default port depends on the network)"`
	NoInitialLoad bool     `long:"noinitialload" description:"Defer wallet opening on startup and enable loading wallets over RPC"`
}

type nextCommand struct {
	RPCServer string `short:"s" long:"rpcserver" description:"Wallet RPC server to connect to"`
	Chain     string `long:"chain" choice:"external" choice:"internal" description:"Multipath element to hand out addresses from"`
	Combo     string `long:"combo" choice:"pk" choice:"pkh" choice:"wpkh" choice:"sh_wpkh" description:"Script to hand out from a combo descriptor"`
	Count     uint32 `long:"count" default:"1" description:"Number of addresses to hand out"`
	Args      struct {
		Name string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

type importCommand struct {
	RPCServer string         `short:"s" long:"rpcserver" description:"Wallet RPC server to connect to"`
	Name      string         `short:"n" long:"name" required:"true" description:"Name to store the descriptor under"`
	Note      string         `long:"note" description:"Free text kept with the descriptor"`
	Args      descriptorArgs `positional-args:"yes" required:"yes"`
}

type config struct {
	ConfigFile string        `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDataDir string        `short:"A" long:"appdata" description:"Application data directory for wallet config, databases and logs"`
	LogDir     string        `long:"logdir" description:"Directory to log output."`
	DebugLevel string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	DBTimeout  time.Duration `long:"dbtimeout" description:"The timeout value to use when opening the wallet database."`
	TestNet3   bool          `long:"testnet" description:"Use the test Bitcoin network (version 3) (default mainnet)"`
	RegTest    bool          `long:"regtest" description:"Use the regression test network (default mainnet)"`
	SigNet     bool          `long:"signet" description:"Use the signet test network (default mainnet)"`
	SimNet     bool          `long:"simnet" description:"Use the simulation test network (default mainnet)"`

	Checksum checksumCommand `command:"checksum" description:"Print a descriptor with its checksum"`
	Info     infoCommand     `command:"info" description:"Describe the keys and derivation needs of a descriptor"`
	Derive   deriveCommand   `command:"derive" description:"Derive addresses of a descriptor"`
	Create   createCommand   `command:"create" description:"Create the wallet"`
	Serve    serveCommand    `command:"serve" description:"Run the gRPC wallet server"`
	Next     nextCommand     `command:"next" description:"Hand out the next addresses of a wallet descriptor"`
	Import   importCommand   `command:"import" description:"Import a descriptor into the wallet"`

	command       string
	activeNet     *netparams.Params
	configErr     error
	walletPath    string
	scryptOptions *snacl.ScryptOptions
}

// netDir returns the wallet directory of the active network.
func (c *config) netDir() string {
	return networkDir(c.AppDataDir, c.activeNet)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to the current user's home directory, or ~otheruser
	// to otheruser's home directory.  On Windows, both forward and backward
	// slashes can be used.
	if path[0] == '~' {
		var homeDir string

		var pathSeparators string
		if os.PathSeparator == '/' {
			pathSeparators = "/"
		} else {
			pathSeparators = "/\\"
		}

		userName := ""
		if i := strings.IndexAny(path, pathSeparators); i != -1 {
			userName = path[1:i]
			path = path[i:]
		}

		homeDir = ""
		var u *user.User
		var err error
		if userName == "" {
			u, err = user.Current()
		} else {
			u, err = user.Lookup(userName)
		}
		if err == nil {
			homeDir = u.HomeDir
		}
		// Fallback to CWD if user lookup fails or user has no home directory.
		if homeDir == "" {
			homeDir = "."
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}

func defaultConfig() config {
	return config{
		ConfigFile: defaultConfigFile,
		AppDataDir: defaultAppDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
		DBTimeout:  defaultDBTimeout,
		activeNet:  &netparams.MainNetParams,

		scryptOptions: &snacl.DefaultScryptOptions,
	}
}

// isHelp reports whether err is the help request of the flags parser.
func isHelp(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func loadConfig(args []string) (*config, error) {
	cfg := defaultConfig()

	// Pre-parse the command line options to see if an alternative config
	// file was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	if _, err := preParser.ParseArgs(args); isHelp(err) {
		return nil, err
	}

	// If the app data directory was changed without naming a config file,
	// look for the config file and logs inside the new directory.
	appDataDir := cleanAndExpandPath(preCfg.AppDataDir)
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	if appDataDir != defaultAppDataDir {
		if configFile == defaultConfigFile {
			configFile = filepath.Join(appDataDir, defaultConfigFilename)
		}
		if cfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(appDataDir, defaultLogDirname)
		}
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.HelpFlag)
	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		// A missing config file is only worth a warning once logging
		// is set up.
		cfg.configErr = err
	}

	// Parse command line options again to ensure they take precedence.
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	cfg.command = parser.Active.Name

	// Choose the active network params based on the selected network.
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if cfg.TestNet3 {
		numNets++
		cfg.activeNet = &netparams.TestNetParams
	}
	if cfg.RegTest {
		numNets++
		cfg.activeNet = &netparams.RegressionNetParams
	}
	if cfg.SigNet {
		numNets++
		cfg.activeNet = &netparams.SigNetParams
	}
	if cfg.SimNet {
		numNets++
		cfg.activeNet = &netparams.SimNetParams
	}
	if numNets > 1 {
		return nil, errors.New("the testnet, regtest, signet and simnet " +
			"params can't be used together -- choose one")
	}

	cfg.AppDataDir = cleanAndExpandPath(cfg.AppDataDir)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir),
		cfg.activeNet.DirName())

	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}

	if cfg.DBTimeout <= 0 {
		return nil, fmt.Errorf("dbtimeout must be positive, got %v",
			cfg.DBTimeout)
	}

	cfg.walletPath = filepath.Join(cfg.netDir(), wallet.WalletDBName)
	dbFileExists, err := cfgutil.FileExists(cfg.walletPath)
	if err != nil {
		return nil, err
	}

	switch cfg.command {
	case createSubCmd:
		if dbFileExists {
			return nil, fmt.Errorf("the wallet database file `%v` "+
				"already exists", cfg.walletPath)
		}

	case serveSubCmd:
		if !dbFileExists && !cfg.Serve.NoInitialLoad {
			return nil, errors.New("the wallet does not exist, run " +
				"the create command to initialize it")
		}
		listeners := cfg.Serve.RPCListeners
		if len(listeners) == 0 {
			listeners = []string{"localhost"}
		}
		cfg.Serve.RPCListeners, err = cfgutil.NormalizeAddresses(
			listeners, cfg.activeNet.RPCServerPort,
		)
		if err != nil {
			return nil, err
		}

	case nextSubCmd:
		cfg.Next.RPCServer, err = normalizeRPCServer(
			cfg.Next.RPCServer, cfg.activeNet,
		)
		if err != nil {
			return nil, err
		}

	case importSubCmd:
		cfg.Import.RPCServer, err = normalizeRPCServer(
			cfg.Import.RPCServer, cfg.activeNet,
		)
		if err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func normalizeRPCServer(addr string, net *netparams.Params) (string, error) {
	if addr == "" {
		addr = "localhost"
	}
	return cfgutil.NormalizeAddress(addr, net.RPCServerPort)
}
