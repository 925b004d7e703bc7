package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/go-resty/resty/v2"
)

// emailProperties are the Email properties requested by GetMetadata.
var emailProperties = []string{"id", "blobId", "size", "receivedAt"}

const jmapCallID = "c0"

type jmapTransport struct {
	client *utils.HTTPClient

	sessionURL *url.URL
	username   string
	password   string
	token      string

	mu      sync.RWMutex
	session *models.Session

	// now is replaced in tests.
	now func() time.Time

	logger *logger.Logger
}

// NewJMAPTransport constructs a JMAP implementation of [MailTransport] for
// the session resource at adapterCfg.SessionURL. A bearer token takes
// precedence over username/password basic auth.
//
// Returns an error if the session URL is empty or not absolute.
func NewJMAPTransport(adapterCfg config.ClientAdapter, logger *logger.Logger) (MailTransport, error) {
	sessionURL, err := url.Parse(strings.TrimSpace(adapterCfg.SessionURL))
	if err != nil {
		return nil, fmt.Errorf("invalid jmap session url: %w", err)
	}
	if sessionURL.Scheme == "" || sessionURL.Host == "" {
		return nil, fmt.Errorf("invalid jmap session url %q: must include scheme and host", adapterCfg.SessionURL)
	}

	client := utils.NewHTTPClient(adapterCfg.RequestTimeout)
	client.SetHeader("Accept", "application/json")

	return &jmapTransport{
		client:     client,
		sessionURL: sessionURL,
		username:   adapterCfg.Username,
		password:   adapterCfg.Password,
		token:      strings.TrimSpace(adapterCfg.Token),
		now:        time.Now,
		logger:     logger,
	}, nil
}

// FetchSession implements [MailTransport]. It GETs the session resource and
// resolves the primary mail account and the maxObjectsInGet limit of the
// core capability. An expired JWT bearer token fails with [ErrUnauthorized]
// without contacting the server.
func (j *jmapTransport) FetchSession(ctx context.Context) (models.Session, error) {
	if j.token != "" && utils.IsJWTExpired(j.token, j.now()) {
		return models.Session{}, fmt.Errorf("%w: bearer token expired", ErrUnauthorized)
	}

	resp, err := j.authedRequest(ctx).Get(j.sessionURL.String())
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: session request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Session{}, err
	}

	var raw models.JMAPSession
	if err = json.Unmarshal(resp.Body(), &raw); err != nil {
		return models.Session{}, fmt.Errorf("%w: decode session: %w", ErrServer, err)
	}

	session, err := j.resolveSession(raw)
	if err != nil {
		return models.Session{}, err
	}

	j.mu.Lock()
	j.session = &session
	j.mu.Unlock()

	j.logger.Debug().
		Str("func", "jmapTransport.FetchSession").
		Str("account_id", session.AccountID).
		Int("max_batch", session.MaxBatch).
		Msg("jmap session resolved")

	return session, nil
}

func (j *jmapTransport) resolveSession(raw models.JMAPSession) (models.Session, error) {
	accountID := raw.PrimaryAccounts[models.JMAPCapabilityMail]
	if accountID == "" {
		return models.Session{}, fmt.Errorf("%w: session has no primary mail account", ErrNotFound)
	}

	var core models.JMAPCoreCapability
	if capRaw, ok := raw.Capabilities[models.JMAPCapabilityCore]; ok {
		if err := json.Unmarshal(capRaw, &core); err != nil {
			return models.Session{}, fmt.Errorf("%w: decode core capability: %w", ErrServer, err)
		}
	}

	apiURL, err := j.resolve(raw.APIURL)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: api url: %w", ErrServer, err)
	}
	downloadURL, err := j.resolve(raw.DownloadURL)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: download url: %w", ErrServer, err)
	}

	return models.Session{
		AccountID:   accountID,
		MaxBatch:    max(core.MaxObjectsInGet, 0),
		APIURL:      apiURL,
		DownloadURL: downloadURL,
	}, nil
}

// resolve makes a session endpoint absolute. Template braces are kept
// intact so downloadUrl can be expanded later.
func (j *jmapTransport) resolve(ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty url")
	}
	if strings.Contains(ref, "://") {
		return ref, nil
	}
	if !strings.HasPrefix(ref, "/") {
		return "", fmt.Errorf("relative url %q", ref)
	}
	return j.sessionURL.Scheme + "://" + j.sessionURL.Host + ref, nil
}

// QueryIDs implements [MailTransport]. It pages through Email/query filtered
// by inMailbox until the server-reported total is reached, or until an empty
// page when the server omits the total.
func (j *jmapTransport) QueryIDs(ctx context.Context, folderID string) ([]string, error) {
	session, err := j.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for {
		args := models.EmailQueryArgs{
			AccountID:      session.AccountID,
			Filter:         &models.EmailFilter{InMailbox: folderID},
			Position:       len(ids),
			CalculateTotal: true,
		}

		var result models.EmailQueryResult
		if err = j.call(ctx, session, "Email/query", args, &result); err != nil {
			return nil, err
		}

		ids = append(ids, result.IDs...)
		if len(result.IDs) == 0 || (result.Total != nil && len(ids) >= *result.Total) {
			return ids, nil
		}
	}
}

// GetMetadata implements [MailTransport] with a single Email/get call.
func (j *jmapTransport) GetMetadata(ctx context.Context, folderID string, ids []string) ([]models.MessageMetadata, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	session, err := j.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	args := models.EmailGetArgs{
		AccountID:  session.AccountID,
		IDs:        ids,
		Properties: emailProperties,
	}

	var result models.EmailGetResult
	if err = j.call(ctx, session, "Email/get", args, &result); err != nil {
		return nil, err
	}

	if len(result.NotFound) > 0 {
		j.logger.Warn().
			Str("func", "jmapTransport.GetMetadata").
			Str("folder_id", folderID).
			Strs("not_found", result.NotFound).
			Msg("server does not know some requested messages")
	}

	metas := make([]models.MessageMetadata, 0, len(result.List))
	for _, email := range result.List {
		metas = append(metas, email.Metadata(folderID))
	}
	return metas, nil
}

// DownloadBody implements [MailTransport]. It expands the session's
// downloadUrl template and streams the blob without buffering it.
func (j *jmapTransport) DownloadBody(ctx context.Context, meta models.MessageMetadata) (io.ReadCloser, error) {
	session, err := j.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if meta.BlobID == "" {
		return nil, fmt.Errorf("%w: message %s has no blob id", ErrNotFound, meta.ServerID)
	}

	downloadURL := expandDownloadURL(session.DownloadURL, session.AccountID, meta.BlobID, meta.ServerID+".eml", "message/rfc822")

	resp, err := j.authedRequest(ctx).
		SetDoNotParseResponse(true).
		Get(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %w", ErrTransport, meta.ServerID, err)
	}
	if err = mapRawHTTPError(resp); err != nil {
		return nil, err
	}

	return resp.RawBody(), nil
}

// Close implements [MailTransport].
func (j *jmapTransport) Close() error {
	j.client.GetClient().CloseIdleConnections()
	return nil
}

func (j *jmapTransport) currentSession(ctx context.Context) (models.Session, error) {
	j.mu.RLock()
	session := j.session
	j.mu.RUnlock()

	if session != nil {
		return *session, nil
	}
	return j.FetchSession(ctx)
}

// call performs a single-method JMAP request and decodes the method
// response arguments into result.
func (j *jmapTransport) call(ctx context.Context, session models.Session, method string, args, result any) error {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode %s arguments: %w", method, err)
	}

	request := models.JMAPRequest{
		Using:       []string{models.JMAPCapabilityCore, models.JMAPCapabilityMail},
		MethodCalls: []models.Invocation{{Name: method, Args: rawArgs, CallID: jmapCallID}},
	}

	resp, err := j.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request).
		Post(session.APIURL)
	if err != nil {
		return fmt.Errorf("%w: %s request: %w", ErrTransport, method, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	var response models.JMAPResponse
	if err = json.Unmarshal(resp.Body(), &response); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrServer, method, err)
	}

	for _, inv := range response.MethodResponses {
		if inv.CallID != jmapCallID {
			continue
		}
		if inv.Name == "error" {
			var methodErr models.MethodError
			if err = json.Unmarshal(inv.Args, &methodErr); err != nil {
				return fmt.Errorf("%w: decode %s error: %w", ErrServer, method, err)
			}
			return mapMethodError(method, methodErr)
		}
		if inv.Name != method {
			return fmt.Errorf("%w: expected %s response, got %s", ErrServer, method, inv.Name)
		}
		if err = json.Unmarshal(inv.Args, result); err != nil {
			return fmt.Errorf("%w: decode %s result: %w", ErrServer, method, err)
		}
		return nil
	}

	return fmt.Errorf("%w: no response for %s", ErrServer, method)
}

func (j *jmapTransport) authedRequest(ctx context.Context) *resty.Request {
	req := j.client.R().SetContext(ctx)
	switch {
	case j.token != "":
		req.SetAuthToken(j.token)
	case j.username != "":
		req.SetBasicAuth(j.username, j.password)
	}
	return req
}

func expandDownloadURL(template, accountID, blobID, name, contentType string) string {
	return strings.NewReplacer(
		"{accountId}", url.PathEscape(accountID),
		"{blobId}", url.PathEscape(blobID),
		"{name}", url.PathEscape(name),
		"{type}", url.QueryEscape(contentType),
	).Replace(template)
}
