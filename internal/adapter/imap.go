package adapter

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/protocol"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-sasl"
)

// internalDateLayout is the IMAP date-time format, e.g.
// "17-Jul-1996 02:44:25 -0700" (the day may be space padded).
const internalDateLayout = "_2-Jan-2006 15:04:05 -0700"

// Dialer opens the raw connection to the IMAP server.
type Dialer func(ctx context.Context) (net.Conn, error)

// imapCommand is one tagged command and the callbacks for the responses it
// provokes.
type imapCommand struct {
	line string

	// literals receives literal bytes; nil buffers them into tokens.
	literals protocol.LiteralHandler
	// untagged is called for each untagged response before completion.
	untagged func(resp *protocol.Response) error
	// continuation answers a "+" request with one line.
	continuation func(resp *protocol.Response) (string, error)
}

type imapTransport struct {
	dial     Dialer
	username string
	password string

	mu       sync.Mutex
	conn     net.Conn
	parser   *protocol.Parser
	w        *bufio.Writer
	tagSeq   uint64
	caps     map[string]struct{}
	selected string

	logger *logger.Logger
}

// NewIMAPTransport constructs an IMAP implementation of [MailTransport]. The
// connection is opened lazily by the first call and reopened after a
// transport failure. Commands are serialized over one connection.
func NewIMAPTransport(adapterCfg config.ClientAdapter, logger *logger.Logger) (MailTransport, error) {
	host, _, err := net.SplitHostPort(adapterCfg.IMAPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid imap address: %w", err)
	}

	dialer := &net.Dialer{Timeout: adapterCfg.RequestTimeout}
	dial := func(ctx context.Context) (net.Conn, error) {
		return dialer.DialContext(ctx, "tcp", adapterCfg.IMAPAddress)
	}
	if adapterCfg.TLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}}
		dial = func(ctx context.Context) (net.Conn, error) {
			return tlsDialer.DialContext(ctx, "tcp", adapterCfg.IMAPAddress)
		}
	}

	return newIMAPTransport(dial, adapterCfg.Username, adapterCfg.Password, logger), nil
}

func newIMAPTransport(dial Dialer, username, password string, logger *logger.Logger) *imapTransport {
	return &imapTransport{
		dial:     dial,
		username: username,
		password: password,
		logger:   logger,
	}
}

// FetchSession implements [MailTransport]. It connects and authenticates if
// needed. IMAP advertises no batch limit, so MaxBatch stays zero.
func (t *imapTransport) FetchSession(ctx context.Context) (models.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureConnected(ctx); err != nil {
		return models.Session{}, err
	}
	return models.Session{AccountID: t.username}, nil
}

// QueryIDs implements [MailTransport] with SELECT and UID SEARCH ALL.
func (t *imapTransport) QueryIDs(ctx context.Context, folderID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.selectFolder(ctx, folderID); err != nil {
		return nil, err
	}

	var ids []string
	cmd := imapCommand{
		line: "UID SEARCH ALL",
		untagged: func(resp *protocol.Response) error {
			if !resp.IsStatus("SEARCH") {
				return nil
			}
			for i := 1; i < len(resp.Tokens); i++ {
				uid, err := resp.Number(i)
				if err != nil {
					return fmt.Errorf("search result: %w", err)
				}
				ids = append(ids, strconv.FormatUint(uid, 10))
			}
			return nil
		},
	}
	if _, err := t.execute(ctx, cmd); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetMetadata implements [MailTransport] with one UID FETCH over the UID set
// of ids. Results are returned in the order of ids.
func (t *imapTransport) GetMetadata(ctx context.Context, folderID string, ids []string) ([]models.MessageMetadata, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uids := make([]imap.UID, 0, len(ids))
	for _, id := range ids {
		uid, err := strconv.ParseUint(id, 10, 32)
		if err != nil || uid == 0 {
			return nil, fmt.Errorf("%w: invalid uid %q", ErrNotFound, id)
		}
		uids = append(uids, imap.UID(uid))
	}
	uidSet := imap.UIDSetNum(uids...)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.selectFolder(ctx, folderID); err != nil {
		return nil, err
	}

	byID := make(map[string]models.MessageMetadata, len(ids))
	cmd := imapCommand{
		line: "UID FETCH " + uidSet.String() + " (UID RFC822.SIZE INTERNALDATE)",
		untagged: func(resp *protocol.Response) error {
			if !isFetchResponse(resp) {
				return nil
			}
			items, ok := resp.List(2)
			if !ok {
				return fmt.Errorf("%w: fetch response without item list", ErrServer)
			}
			meta, err := parseFetchItems(items)
			if err != nil {
				return err
			}
			meta.FolderID = folderID
			byID[meta.ServerID] = meta
			return nil
		},
	}
	if _, err := t.execute(ctx, cmd); err != nil {
		return nil, err
	}

	metas := make([]models.MessageMetadata, 0, len(byID))
	var missing []string
	for _, id := range ids {
		if meta, ok := byID[id]; ok {
			metas = append(metas, meta)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		t.logger.Warn().
			Str("func", "imapTransport.GetMetadata").
			Str("folder_id", folderID).
			Strs("not_found", missing).
			Msg("server does not know some requested messages")
	}

	return metas, nil
}

// DownloadBody implements [MailTransport]. The body literal of
// UID FETCH <uid> BODY.PEEK[] is piped to the returned reader while the
// command runs; the connection stays locked until the reader is drained or
// closed.
func (t *imapTransport) DownloadBody(ctx context.Context, meta models.MessageMetadata) (io.ReadCloser, error) {
	uid := meta.BlobID
	if uid == "" {
		uid = meta.ServerID
	}
	if _, err := strconv.ParseUint(uid, 10, 32); err != nil {
		return nil, fmt.Errorf("%w: invalid uid %q", ErrNotFound, uid)
	}

	pr, pw := io.Pipe()

	go func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		if err := t.selectFolder(ctx, meta.FolderID); err != nil {
			pw.CloseWithError(err)
			return
		}

		found := false
		cmd := imapCommand{
			line: "UID FETCH " + uid + " BODY.PEEK[]",
			literals: protocol.LiteralHandlerFunc(func(resp *protocol.Response, size int64, r io.Reader) (bool, error) {
				if found {
					return false, nil
				}
				// Stream only when the UID came before the body; otherwise
				// the parser buffers it and untagged checks the UID.
				litUID, ok := bodyLiteralUID(resp)
				if !ok || !sameUID(litUID, uid) {
					return false, nil
				}
				found = true
				// A closed reader leaves the rest to the parser, which drains it.
				_, _ = io.Copy(pw, r)
				return true, nil
			}),
			untagged: func(resp *protocol.Response) error {
				if found || !isFetchResponse(resp) {
					return nil
				}
				items, ok := resp.List(2)
				if !ok {
					return nil
				}
				body, ok := fetchBody(items, uid)
				if !ok {
					return nil
				}
				found = true
				_, _ = pw.Write(body)
				return nil
			},
		}

		_, err := t.execute(ctx, cmd)
		if err == nil && !found {
			err = fmt.Errorf("%w: message %s has no body", ErrNotFound, meta.ServerID)
		}
		pw.CloseWithError(err)
	}()

	return pr, nil
}

// Close implements [MailTransport]. It sends LOGOUT when connected.
func (t *imapTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := t.execute(ctx, imapCommand{line: "LOGOUT"})
	if t.conn != nil {
		t.conn.Close()
	}
	t.reset()
	if err != nil && !errors.Is(err, ErrTransport) {
		return err
	}
	return nil
}

// ensureConnected dials, reads the greeting, and authenticates unless the
// server greets with PREAUTH. Must be called with t.mu held.
func (t *imapTransport) ensureConnected(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: dial: %w", ErrTransport, err)
	}
	t.conn = conn
	t.parser = protocol.NewParser(conn)
	t.w = bufio.NewWriter(conn)

	greeting, err := t.readGreeting(ctx)
	if err != nil {
		t.drop()
		return err
	}

	if err = t.refreshCapabilities(ctx); err != nil {
		t.drop()
		return err
	}

	if greeting.IsStatus("PREAUTH") {
		return nil
	}

	if err = t.authenticate(ctx); err != nil {
		t.drop()
		return err
	}

	// Capabilities may change after authentication.
	if err = t.refreshCapabilities(ctx); err != nil {
		t.drop()
		return err
	}

	t.logger.Debug().
		Str("func", "imapTransport.ensureConnected").
		Str("username", t.username).
		Msg("imap session authenticated")

	return nil
}

func (t *imapTransport) readGreeting(ctx context.Context) (*protocol.Response, error) {
	stop := t.watch(ctx)
	defer stop()

	greeting, err := t.parser.ReadResponse(nil)
	if err != nil {
		return nil, t.ioError(ctx, "greeting", err)
	}
	t.logAlert(greeting)

	switch {
	case greeting.Tag != "" || greeting.ContinuationRequested:
		return nil, fmt.Errorf("%w: unexpected greeting %s", ErrServer, greeting.Format())
	case greeting.IsStatus("BYE"):
		return nil, fmt.Errorf("%w: server refused connection: %s", ErrServer, greeting.Text(1))
	case greeting.IsStatus("OK"), greeting.IsStatus("PREAUTH"):
		return greeting, nil
	default:
		return nil, fmt.Errorf("%w: unexpected greeting %s", ErrServer, greeting.Format())
	}
}

func (t *imapTransport) refreshCapabilities(ctx context.Context) error {
	caps := make(map[string]struct{})
	cmd := imapCommand{
		line: "CAPABILITY",
		untagged: func(resp *protocol.Response) error {
			if !resp.IsStatus("CAPABILITY") {
				return nil
			}
			for i := 1; i < len(resp.Tokens); i++ {
				caps[strings.ToUpper(resp.String(i))] = struct{}{}
			}
			return nil
		},
	}
	if _, err := t.execute(ctx, cmd); err != nil {
		return err
	}
	t.caps = caps
	return nil
}

func (t *imapTransport) hasCap(name string) bool {
	_, ok := t.caps[name]
	return ok
}

// authenticate uses SASL PLAIN when advertised and falls back to LOGIN.
// A tagged NO is reported as ErrUnauthorized.
func (t *imapTransport) authenticate(ctx context.Context) error {
	var err error
	if t.hasCap("AUTH=PLAIN") {
		err = t.authenticateSASL(ctx, sasl.NewPlainClient("", t.username, t.password))
	} else {
		if t.hasCap("LOGINDISABLED") {
			return fmt.Errorf("%w: server disabled LOGIN and offers no PLAIN mechanism", ErrUnauthorized)
		}
		_, err = t.execute(ctx, imapCommand{line: "LOGIN " + quote(t.username) + " " + quote(t.password)})
	}

	if errors.Is(err, ErrServer) {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}

func (t *imapTransport) authenticateSASL(ctx context.Context, client sasl.Client) error {
	mech, initial, err := client.Start()
	if err != nil {
		return fmt.Errorf("%w: sasl start: %w", ErrUnauthorized, err)
	}

	line := "AUTHENTICATE " + mech
	if initial != nil && t.hasCap("SASL-IR") {
		line += " " + encodeSASL(initial)
		initial = nil
	}

	cmd := imapCommand{
		line: line,
		continuation: func(resp *protocol.Response) (string, error) {
			challenge := resp.Text(0)
			if challenge == "" {
				if initial == nil {
					return "", errors.New("server requested a missing initial response")
				}
				reply := encodeSASL(initial)
				initial = nil
				return reply, nil
			}

			decoded, err := base64.StdEncoding.DecodeString(challenge)
			if err != nil {
				return "", fmt.Errorf("decode sasl challenge: %w", err)
			}
			reply, err := client.Next(decoded)
			if err != nil {
				return "", err
			}
			return encodeSASL(reply), nil
		},
	}

	_, err = t.execute(ctx, cmd)
	return err
}

// selectFolder connects if needed and selects folderID unless it already is
// the selected mailbox. Must be called with t.mu held.
func (t *imapTransport) selectFolder(ctx context.Context, folderID string) error {
	if err := t.ensureConnected(ctx); err != nil {
		return err
	}
	if folderID == "" {
		return fmt.Errorf("%w: empty folder", ErrNotFound)
	}
	if t.selected == folderID {
		return nil
	}

	t.selected = ""
	if _, err := t.execute(ctx, imapCommand{line: "SELECT " + quote(folderID)}); err != nil {
		if errors.Is(err, ErrServer) {
			return fmt.Errorf("%w: folder %s: %w", ErrNotFound, folderID, err)
		}
		return err
	}
	t.selected = folderID
	return nil
}

// execute sends one command and reads responses until its tagged
// completion. Must be called with t.mu held and t.conn set.
func (t *imapTransport) execute(ctx context.Context, cmd imapCommand) (*protocol.Response, error) {
	if t.conn == nil {
		return nil, fmt.Errorf("%w: not connected", ErrTransport)
	}

	stop := t.watch(ctx)
	defer stop()

	t.tagSeq++
	tag := fmt.Sprintf("A%04d", t.tagSeq)

	if err := t.writeLine(tag + " " + cmd.line); err != nil {
		return nil, t.ioError(ctx, cmd.verb(), err)
	}

	for {
		resp, err := t.parser.ReadResponse(cmd.literals)
		if err != nil {
			return nil, t.ioError(ctx, cmd.verb(), err)
		}
		t.logAlert(resp)

		switch resp.Kind() {
		case protocol.KindContinuation:
			if cmd.continuation == nil {
				t.drop()
				return nil, fmt.Errorf("%w: unexpected continuation request for %s", ErrServer, cmd.verb())
			}
			reply, err := cmd.continuation(resp)
			if err != nil {
				// "*" cancels the exchange; the server then completes the command with BAD.
				reply = "*"
				t.logger.Err(err).
					Str("func", "imapTransport.execute").
					Str("command", cmd.verb()).
					Msg("aborting continuation")
			}
			if err = t.writeLine(reply); err != nil {
				return nil, t.ioError(ctx, cmd.verb(), err)
			}
		case protocol.KindTagged:
			if !resp.IsTagged(tag) {
				t.drop()
				return nil, fmt.Errorf("%w: unexpected tag %s, want %s", ErrServer, resp.Tag, tag)
			}
			if resp.IsStatus("OK") {
				return resp, nil
			}
			return nil, fmt.Errorf("%w: %s %s: %s", ErrServer, cmd.verb(), resp.Status(), resp.Text(1))
		default:
			if resp.IsStatus("BYE") && cmd.verb() != "LOGOUT" {
				t.logger.Warn().
					Str("func", "imapTransport.execute").
					Str("text", resp.Text(1)).
					Msg("server is closing the connection")
			}
			if cmd.untagged != nil {
				if err = cmd.untagged(resp); err != nil {
					t.drop()
					return nil, err
				}
			}
		}
	}
}

func (t *imapTransport) writeLine(line string) error {
	if _, err := t.w.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return t.w.Flush()
}

// watch interrupts blocked connection I/O when ctx is done.
func (t *imapTransport) watch(ctx context.Context) (stop func()) {
	conn := t.conn
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	cancel := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	return func() {
		cancel()
		conn.SetDeadline(time.Time{})
	}
}

// ioError drops the connection, which is out of sync after any read or
// write failure, and classifies err.
func (t *imapTransport) ioError(ctx context.Context, verb string, err error) error {
	t.drop()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, protocol.ErrSyntax) {
		return fmt.Errorf("%s: %w", verb, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, verb, err)
}

func (t *imapTransport) drop() {
	if t.conn != nil {
		t.conn.Close()
	}
	t.reset()
}

func (t *imapTransport) reset() {
	t.conn = nil
	t.parser = nil
	t.w = nil
	t.caps = nil
	t.selected = ""
}

func (t *imapTransport) logAlert(resp *protocol.Response) {
	if alert, ok := resp.AlertText(); ok {
		t.logger.Warn().
			Str("func", "imapTransport.logAlert").
			Str("alert", alert).
			Msg("server alert")
	}
}

func (c imapCommand) verb() string {
	verb, rest, _ := strings.Cut(c.line, " ")
	if verb == "UID" {
		sub, _, _ := strings.Cut(rest, " ")
		return verb + " " + sub
	}
	return verb
}

func isFetchResponse(resp *protocol.Response) bool {
	return resp.Kind() == protocol.KindUntagged && len(resp.Tokens) >= 2 && strings.EqualFold(resp.String(1), "FETCH")
}

// bodyLiteralUID reports whether the literal being read is the BODY[] item
// of a FETCH response and returns the UID announced before it, if any.
func bodyLiteralUID(resp *protocol.Response) (string, bool) {
	if !isFetchResponse(resp) || resp.Depth() != 1 {
		return "", false
	}
	items := resp.Enclosing()
	if len(items)%2 != 1 || !strings.EqualFold(items[len(items)-1].String(), "BODY[]") {
		return "", false
	}
	var uid string
	for i := 0; i+1 < len(items); i += 2 {
		if strings.EqualFold(items[i].String(), "UID") {
			uid = items[i+1].String()
		}
	}
	return uid, true
}

// fetchBody returns the buffered BODY[] bytes of a FETCH item list whose UID
// is uid.
func fetchBody(items protocol.List, uid string) ([]byte, bool) {
	var (
		body    []byte
		hasBody bool
		matched bool
	)
	for i := 0; i+1 < len(items); i += 2 {
		switch strings.ToUpper(items[i].String()) {
		case "UID":
			matched = sameUID(items[i+1].String(), uid)
		case "BODY[]":
			if lit, ok := items[i+1].(*protocol.Literal); ok && !lit.Streamed {
				body, hasBody = lit.Data, true
			}
		}
	}
	return body, matched && hasBody
}

// sameUID compares UIDs numerically so "007" and "7" match.
func sameUID(a, b string) bool {
	x, err := strconv.ParseUint(a, 10, 32)
	if err != nil {
		return false
	}
	y, err := strconv.ParseUint(b, 10, 32)
	return err == nil && x == y
}

// parseFetchItems decodes the (UID n RFC822.SIZE n INTERNALDATE "...") list
// of a FETCH response.
func parseFetchItems(items protocol.List) (models.MessageMetadata, error) {
	var meta models.MessageMetadata
	for i := 0; i+1 < len(items); i += 2 {
		value := items[i+1].String()
		switch strings.ToUpper(items[i].String()) {
		case "UID":
			if _, err := strconv.ParseUint(value, 10, 32); err != nil {
				return meta, fmt.Errorf("%w: bad uid %q", ErrServer, value)
			}
			meta.ServerID = value
			meta.BlobID = value
		case "RFC822.SIZE":
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return meta, fmt.Errorf("%w: bad size %q", ErrServer, value)
			}
			meta.Size = size
		case "INTERNALDATE":
			received, err := time.Parse(internalDateLayout, value)
			if err != nil {
				return meta, fmt.Errorf("%w: bad internal date %q", ErrServer, value)
			}
			meta.ReceivedAt = &received
		}
	}
	if meta.ServerID == "" {
		return meta, fmt.Errorf("%w: fetch response without uid", ErrServer)
	}
	return meta, nil
}

// quote renders s as an IMAP quoted string.
func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func encodeSASL(b []byte) string {
	if len(b) == 0 {
		return "="
	}
	return base64.StdEncoding.EncodeToString(b)
}
