package service

import "errors"

var (
	ErrNoFolders        = errors.New("no folders to sync")
	ErrInvalidFolder    = errors.New("invalid folder ID")
	ErrFolderSyncFailed = errors.New("folder sync failed")

	ErrFetchingSession  = errors.New("error fetching session")
	ErrQueryingIDs      = errors.New("error querying remote message IDs")
	ErrOpeningFolder    = errors.New("error opening local folder")
	ErrReadingLocalIDs  = errors.New("error reading local message IDs")
	ErrBuildingPlan     = errors.New("error building sync plan")
	ErrFetchingMetadata = errors.New("error fetching message metadata")
	ErrDownloadingBody  = errors.New("error downloading message body")
	ErrPersisting       = errors.New("error persisting message")
	ErrPruningStale     = errors.New("error pruning stale messages")
	ErrMarkingSynced    = errors.New("error marking folder as synced")
)
