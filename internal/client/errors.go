package client

import "errors"

var (
	ErrNoServices      = errors.New("sync services are not initialized")
	ErrNoConfig        = errors.New("config is not provided")
	ErrNoFolders       = errors.New("no folders configured for sync")
	ErrClosingResource = errors.New("error closing resource")
)
