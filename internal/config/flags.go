package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// FolderList is a comma-separated list of folder IDs.
// It implements the flag.Value interface; repeated flags accumulate.
type FolderList []string

// ParseFlags parses all configuration flags from os.Args.
//
// Flags:
//
//	-protocol transport protocol (jmap or imap)
//	-session-url JMAP session resource URL
//	-imap-address IMAP server address in format [host]:[port]
//	-tls use implicit TLS for IMAP
//	-u account username
//	-p account password
//	-token JMAP bearer token
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-d database DSN
//	-body-dir message body directory
//	-folders comma-separated folder IDs
//	-max-batch maximum messages per metadata request
//	-download-concurrency parallel body downloads per batch
//	-prune delete local messages missing on the server
//	-sync-interval background sync period (e.g., "5m")
//	-log-file log file path
//	-c/-config json file path with configs
func ParseFlags() (*StructuredConfig, error) {
	return parseFlags(os.Args[1:])
}

func parseFlags(args []string) (*StructuredConfig, error) {
	var imapAddress NetAddress
	var folders FolderList
	var protocol, sessionURL, username, password, token string
	var databaseDSN, bodyDir, logFile, jsonConfigPath string
	var useTLS, prune bool
	var maxBatch, downloadConcurrency int
	var requestTimeout, syncInterval time.Duration

	fs := flag.NewFlagSet("mailsync", flag.ContinueOnError)
	fs.StringVar(&protocol, "protocol", "", "Transport protocol: jmap or imap")
	fs.StringVar(&sessionURL, "session-url", "", "JMAP session URL")
	fs.Var(&imapAddress, "imap-address", "IMAP server address host:port")
	fs.BoolVar(&useTLS, "tls", false, "Use implicit TLS for IMAP")
	fs.StringVar(&username, "u", "", "Account username")
	fs.StringVar(&password, "p", "", "Account password")
	fs.StringVar(&token, "token", "", "JMAP bearer token")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&bodyDir, "body-dir", "", "Message body directory")
	fs.Var(&folders, "folders", "Comma-separated folder IDs")
	fs.IntVar(&maxBatch, "max-batch", 0, "Maximum messages per metadata request")
	fs.IntVar(&downloadConcurrency, "download-concurrency", 0, "Parallel body downloads per batch")
	fs.BoolVar(&prune, "prune", false, "Delete local messages missing on the server")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Background sync period (e.g., 5m)")
	fs.StringVar(&logFile, "log-file", "", "Log file path")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			LogFile: logFile,
		},
		Adapter: Adapter{
			Protocol:       protocol,
			SessionURL:     sessionURL,
			IMAPAddress:    imapAddress.String(),
			TLS:            useTLS,
			Username:       username,
			Password:       password,
			Token:          token,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Files: Files{
				BodyDir: bodyDir,
			},
		},
		Sync: Sync{
			Folders:             folders,
			MaxBatch:            maxBatch,
			DownloadConcurrency: downloadConcurrency,
			PruneStale:          prune,
		},
		Workers: Workers{
			SyncInterval: syncInterval,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range and returns an error if the format or values
// are invalid. Host may be a name or an IP address.
func (a *NetAddress) Set(s string) error {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host == "" {
		return errors.New("empty host")
	}

	a.Host = host
	a.Port = port
	return nil
}

func (f *FolderList) String() string {
	return strings.Join(*f, ",")
}

// Set appends the comma-separated folder IDs in s, skipping empty entries.
func (f *FolderList) Set(s string) error {
	for _, folder := range strings.Split(s, ",") {
		if folder = strings.TrimSpace(folder); folder != "" {
			*f = append(*f, folder)
		}
	}
	return nil
}
