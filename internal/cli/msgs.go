package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort     = "Persistent storage for named, typed objects"
	MsgVersionShort  = "Print version information"
	MsgVersionLong   = "Print detailed version information including commit hash and build date"
	MsgCreateShort   = "Create a new, empty store"
	MsgPutShort      = "Store a value under a key"
	MsgGetShort      = "Print the value stored under a key"
	MsgLsShort       = "List the entries of a store"
	MsgInfoShort     = "Describe a store"
	MsgRmStoreShort  = "Erase every entry of a store"
	MsgCacheDirShort = "Print the directory used for cached reads"
	MsgServeShort    = "Serve stores over HTTP"

	// Status messages
	MsgStoreCreated = "Created store %s"
	MsgStoreErased  = "Erased store %s"
	MsgValueStored  = "Stored %s in %s"
	MsgServing      = "Serving %s on %s"

	// Version output
	MsgVersionFormat = "objstore version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"

	// Error messages
	MsgErrLoadConfig  = "failed to load configuration"
	MsgErrManager     = "failed to set up stores"
	MsgErrParseValue  = "cannot parse %q as %s"
	MsgErrUnknownType = "unknown value type %q (want string, int, float, bool, strings or json)"
	MsgErrServeRoot   = "cannot serve %s"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Configuration file (default $XDG_CONFIG_HOME/objstore/config.toml)"
	MsgFlagRoot     = "Directory plain store names are resolved against"
	MsgFlagCacheDir = "Directory for cached reads of remote stores"
	MsgFlagFormat   = "Output format: auto, terminal, text or json"
	MsgFlagCached   = "Read remote stores through the local cache"
	MsgFlagTimeout  = "Give up opening a store after this many milliseconds (0 waits forever)"
	MsgFlagType     = "Type of the value: string, int, float, bool, strings or json"
	MsgFlagCreate   = "Create the store if it does not exist"
	MsgFlagCodec    = "Codec for new stores: cbor or yaml"
	MsgFlagAddr     = "Address to listen on"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/put-long.txt
	msgPutLongRaw string
	MsgPutLong    = strings.TrimSpace(msgPutLongRaw)

	//go:embed msgs/put-example.txt
	msgPutExampleRaw string
	MsgPutExample    = strings.TrimRight(msgPutExampleRaw, "\n")

	//go:embed msgs/get-example.txt
	msgGetExampleRaw string
	MsgGetExample    = strings.TrimRight(msgGetExampleRaw, "\n")

	//go:embed msgs/serve-long.txt
	msgServeLongRaw string
	MsgServeLong    = strings.TrimSpace(msgServeLongRaw)

	//go:embed msgs/serve-example.txt
	msgServeExampleRaw string
	MsgServeExample    = strings.TrimRight(msgServeExampleRaw, "\n")
)
