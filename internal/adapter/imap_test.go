package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/protocol"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	uid  uint32
	date string
	body string
}

// fakeIMAP is a scripted IMAP server served over net.Pipe.
type fakeIMAP struct {
	t *testing.T

	greeting   string
	caps       string
	rejectAuth bool
	stallOn    string
	hangupOn   string
	mailboxes  map[string][]fakeMessage

	// bodyPrelude is written before the responses to a body fetch.
	bodyPrelude string
	// uidAfterBody puts the UID item after BODY[] in body fetches.
	uidAfterBody bool

	mu       sync.Mutex
	commands []string
	dials    int
}

func newFakeIMAP(t *testing.T) *fakeIMAP {
	return &fakeIMAP{
		t:        t,
		greeting: "* OK IMAP4rev1 ready",
		caps:     "IMAP4rev1 AUTH=PLAIN",
		mailboxes: map[string][]fakeMessage{
			"INBOX": {
				{uid: 1, date: "17-Jul-1996 02:44:25 -0700", body: "Subject: one\r\n\r\nfirst"},
				{uid: 2, date: " 1-Feb-2024 10:00:00 +0000", body: "Subject: two\r\n\r\nsecond"},
				{uid: 3, date: "03-Mar-2024 11:30:00 +0100", body: "Subject: three\r\n\r\n" + strings.Repeat("x", 8192)},
			},
			"Archive": {
				{uid: 7, date: "04-Apr-2023 09:00:00 +0000", body: "Subject: old\r\n\r\narchived"},
			},
		},
	}
}

func (f *fakeIMAP) dialer() Dialer {
	return func(ctx context.Context) (net.Conn, error) {
		f.mu.Lock()
		f.dials++
		f.mu.Unlock()

		client, server := net.Pipe()
		go f.serve(server)
		return client, nil
	}
}

func (f *fakeIMAP) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.commands)
}

func (f *fakeIMAP) serve(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	send := func(lines ...string) bool {
		for _, l := range lines {
			w.WriteString(l + "\r\n")
		}
		return w.Flush() == nil
	}
	readLine := func() (string, bool) {
		line, err := r.ReadString('\n')
		return strings.TrimRight(line, "\r\n"), err == nil
	}

	if !send(f.greeting) {
		return
	}

	var selected string
	for {
		line, ok := readLine()
		if !ok {
			return
		}
		tag, rest, _ := strings.Cut(line, " ")
		verb := commandVerb(rest)

		f.mu.Lock()
		f.commands = append(f.commands, rest)
		f.mu.Unlock()

		if verb == f.stallOn {
			// Never answer; the client has to give up on its own.
			io.Copy(io.Discard, r)
			return
		}
		if verb == f.hangupOn {
			return
		}

		switch verb {
		case "CAPABILITY":
			send("* CAPABILITY "+f.caps, tag+" OK CAPABILITY completed")

		case "LOGIN":
			if f.rejectAuth || rest != `LOGIN "alice" "secret"` {
				send(tag + " NO [AUTHENTICATIONFAILED] invalid credentials")
				continue
			}
			send(tag + " OK LOGIN completed")

		case "AUTHENTICATE":
			fields := strings.Fields(rest)
			var ir string
			if len(fields) == 3 {
				ir = fields[2]
			} else {
				send("+ ")
				if ir, ok = readLine(); !ok {
					return
				}
			}
			decoded, err := base64.StdEncoding.DecodeString(ir)
			if f.rejectAuth || err != nil || string(decoded) != "\x00alice\x00secret" {
				send(tag + " NO [AUTHENTICATIONFAILED] invalid credentials")
				continue
			}
			send(tag + " OK AUTHENTICATE completed")

		case "SELECT":
			name, _ := strconv.Unquote(strings.TrimPrefix(rest, "SELECT "))
			msgs, exists := f.mailboxes[name]
			if !exists {
				selected = ""
				send(tag + " NO [NONEXISTENT] no such mailbox")
				continue
			}
			selected = name
			send(fmt.Sprintf("* %d EXISTS", len(msgs)), tag+" OK [READ-WRITE] SELECT completed")

		case "UID SEARCH":
			var uids []string
			for _, m := range f.mailboxes[selected] {
				uids = append(uids, strconv.FormatUint(uint64(m.uid), 10))
			}
			send(strings.TrimSpace("* SEARCH "+strings.Join(uids, " ")), tag+" OK SEARCH completed")

		case "UID FETCH":
			f.fetch(w, tag, rest, f.mailboxes[selected])

		case "LOGOUT":
			send("* BYE logging out", tag+" OK LOGOUT completed")
			return

		default:
			send(tag + " BAD unknown command")
		}
	}
}

func (f *fakeIMAP) fetch(w *bufio.Writer, tag, rest string, msgs []fakeMessage) {
	fields := strings.SplitN(rest, " ", 4) // UID FETCH <set> <items>
	set := parseTestUIDSet(f.t, fields[2])
	items := fields[3]

	if items == "BODY.PEEK[]" {
		w.WriteString(f.bodyPrelude)
	}
	for seq, m := range msgs {
		if !slices.Contains(set, m.uid) {
			continue
		}
		if items == "BODY.PEEK[]" && f.uidAfterBody {
			fmt.Fprintf(w, "* %d FETCH (BODY[] {%d}\r\n%s UID %d)\r\n", seq+1, len(m.body), m.body, m.uid)
			continue
		}
		if items == "BODY.PEEK[]" {
			fmt.Fprintf(w, "* %d FETCH (UID %d BODY[] {%d}\r\n%s)\r\n", seq+1, m.uid, len(m.body), m.body)
			continue
		}
		fmt.Fprintf(w, "* %d FETCH (UID %d RFC822.SIZE %d INTERNALDATE %q)\r\n", seq+1, m.uid, len(m.body), m.date)
	}
	w.WriteString(tag + " OK FETCH completed\r\n")
	w.Flush()
}

func commandVerb(rest string) string {
	verb, tail, _ := strings.Cut(rest, " ")
	verb = strings.ToUpper(verb)
	if verb == "UID" {
		sub, _, _ := strings.Cut(tail, " ")
		return verb + " " + strings.ToUpper(sub)
	}
	return verb
}

func parseTestUIDSet(t *testing.T, s string) []uint32 {
	var uids []uint32
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, ":")
		start, err := strconv.ParseUint(lo, 10, 32)
		require.NoError(t, err)
		end := start
		if isRange {
			end, err = strconv.ParseUint(hi, 10, 32)
			require.NoError(t, err)
		}
		for uid := start; uid <= end; uid++ {
			uids = append(uids, uint32(uid))
		}
	}
	return uids
}

func newTestIMAP(f *fakeIMAP, log *logger.Logger) *imapTransport {
	if log == nil {
		log = logger.Nop()
	}
	return newIMAPTransport(f.dialer(), "alice", "secret", log)
}

// ── FetchSession ─────────────────────────────────────────────────────────────

func TestIMAP_FetchSession_SASLPlain(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	session, err := tr.FetchSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "alice", session.AccountID)
	assert.Zero(t, session.MaxBatch)
	assert.Equal(t, []string{"CAPABILITY", "AUTHENTICATE PLAIN", "CAPABILITY"}, f.recorded())
}

func TestIMAP_FetchSession_SASLInitialResponse(t *testing.T) {
	f := newFakeIMAP(t)
	f.caps = "IMAP4rev1 SASL-IR AUTH=PLAIN"
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	_, err := tr.FetchSession(context.Background())

	require.NoError(t, err)
	ir := base64.StdEncoding.EncodeToString([]byte("\x00alice\x00secret"))
	assert.Contains(t, f.recorded(), "AUTHENTICATE PLAIN "+ir)
}

func TestIMAP_FetchSession_Login(t *testing.T) {
	f := newFakeIMAP(t)
	f.caps = "IMAP4rev1"
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	_, err := tr.FetchSession(context.Background())

	require.NoError(t, err)
	assert.Contains(t, f.recorded(), `LOGIN "alice" "secret"`)
}

func TestIMAP_FetchSession_Rejected(t *testing.T) {
	for _, caps := range []string{"IMAP4rev1", "IMAP4rev1 AUTH=PLAIN"} {
		t.Run(caps, func(t *testing.T) {
			f := newFakeIMAP(t)
			f.caps = caps
			f.rejectAuth = true
			tr := newTestIMAP(f, nil)

			_, err := tr.FetchSession(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestIMAP_FetchSession_LoginDisabled(t *testing.T) {
	f := newFakeIMAP(t)
	f.caps = "IMAP4rev1 LOGINDISABLED"
	tr := newTestIMAP(f, nil)

	_, err := tr.FetchSession(context.Background())

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIMAP_FetchSession_Preauth(t *testing.T) {
	f := newFakeIMAP(t)
	f.greeting = "* PREAUTH logged in as alice"
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	_, err := tr.FetchSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"CAPABILITY"}, f.recorded())
}

func TestIMAP_FetchSession_ByeGreeting(t *testing.T) {
	f := newFakeIMAP(t)
	f.greeting = "* BYE too many connections"
	tr := newTestIMAP(f, nil)

	_, err := tr.FetchSession(context.Background())

	assert.ErrorIs(t, err, ErrServer)
}

func TestIMAP_FetchSession_LogsAlert(t *testing.T) {
	var buf bytes.Buffer
	f := newFakeIMAP(t)
	f.greeting = "* OK [ALERT] System maintenance tonight"
	tr := newTestIMAP(f, &logger.Logger{Logger: zerolog.New(&buf)})
	defer tr.Close()

	_, err := tr.FetchSession(context.Background())

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"alert":"System maintenance tonight "`)
}

func TestIMAP_FetchSession_DialError(t *testing.T) {
	tr := newIMAPTransport(func(ctx context.Context) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}, "alice", "secret", logger.Nop())

	_, err := tr.FetchSession(context.Background())

	assert.ErrorIs(t, err, ErrTransport)
}

// ── QueryIDs ─────────────────────────────────────────────────────────────────

func TestIMAP_QueryIDs(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	ids, err := tr.QueryIDs(context.Background(), "INBOX")

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Contains(t, f.recorded(), `SELECT "INBOX"`)
	assert.Contains(t, f.recorded(), "UID SEARCH ALL")
}

func TestIMAP_QueryIDs_UnknownFolder(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	_, err := tr.QueryIDs(context.Background(), "Nope")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIMAP_QueryIDs_SelectsOnce(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	_, err := tr.QueryIDs(context.Background(), "INBOX")
	require.NoError(t, err)
	_, err = tr.QueryIDs(context.Background(), "INBOX")
	require.NoError(t, err)

	selects := 0
	for _, c := range f.recorded() {
		if strings.HasPrefix(c, "SELECT") {
			selects++
		}
	}
	assert.Equal(t, 1, selects)
}

func TestIMAP_QueryIDs_ContextDeadline(t *testing.T) {
	f := newFakeIMAP(t)
	f.stallOn = "UID SEARCH"
	tr := newTestIMAP(f, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := tr.QueryIDs(ctx, "INBOX")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIMAP_ReconnectsAfterHangup(t *testing.T) {
	f := newFakeIMAP(t)
	f.hangupOn = "UID SEARCH"
	tr := newTestIMAP(f, nil)

	_, err := tr.QueryIDs(context.Background(), "INBOX")
	require.ErrorIs(t, err, ErrTransport)

	f.hangupOn = ""
	ids, err := tr.QueryIDs(context.Background(), "INBOX")

	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Equal(t, 2, f.dials)
	tr.Close()
}

// ── GetMetadata ──────────────────────────────────────────────────────────────

func TestIMAP_GetMetadata(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	metas, err := tr.GetMetadata(context.Background(), "INBOX", []string{"3", "1", "2", "9"})

	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{metas[0].ServerID, metas[1].ServerID, metas[2].ServerID})
	fetches := 0
	for _, c := range f.recorded() {
		if strings.HasPrefix(c, "UID FETCH ") && strings.HasSuffix(c, " (UID RFC822.SIZE INTERNALDATE)") {
			fetches++
		}
	}
	assert.Equal(t, 1, fetches)

	first := metas[1]
	assert.Equal(t, "INBOX", first.FolderID)
	assert.Equal(t, "1", first.BlobID)
	assert.EqualValues(t, len("Subject: one\r\n\r\nfirst"), first.Size)
	require.NotNil(t, first.ReceivedAt)
	assert.Equal(t, time.Date(1996, 7, 17, 9, 44, 25, 0, time.UTC), first.ReceivedAt.UTC())

	require.NotNil(t, metas[2].ReceivedAt)
	assert.Equal(t, 1, metas[2].ReceivedAt.Day())
}

func TestIMAP_GetMetadata_InvalidUID(t *testing.T) {
	tr := newTestIMAP(newFakeIMAP(t), nil)

	_, err := tr.GetMetadata(context.Background(), "INBOX", []string{"M001"})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIMAP_GetMetadata_Empty(t *testing.T) {
	tr := newTestIMAP(newFakeIMAP(t), nil)

	metas, err := tr.GetMetadata(context.Background(), "INBOX", nil)

	require.NoError(t, err)
	assert.Nil(t, metas)
}

// ── DownloadBody ─────────────────────────────────────────────────────────────

func TestIMAP_DownloadBody(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	rc, err := tr.DownloadBody(context.Background(), models.MessageMetadata{FolderID: "INBOX", ServerID: "3", BlobID: "3"})
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, f.mailboxes["INBOX"][2].body, string(body))
	assert.Contains(t, f.recorded(), "UID FETCH 3 BODY.PEEK[]")
}

func TestIMAP_DownloadBody_EarlyCloseKeepsConnection(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	rc, err := tr.DownloadBody(context.Background(), models.MessageMetadata{FolderID: "INBOX", ServerID: "3", BlobID: "3"})
	require.NoError(t, err)
	buf := make([]byte, 16)
	_, err = io.ReadFull(rc, buf)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	ids, err := tr.QueryIDs(context.Background(), "INBOX")

	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Equal(t, 1, f.dials)
}

func TestIMAP_DownloadBody_Missing(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	rc, err := tr.DownloadBody(context.Background(), models.MessageMetadata{FolderID: "INBOX", ServerID: "42", BlobID: "42"})
	require.NoError(t, err)
	_, err = io.ReadAll(rc)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIMAP_DownloadBody_IgnoresOtherFetchLiterals(t *testing.T) {
	tests := []struct {
		name    string
		prelude string
	}{
		{
			name:    "unsolicited body of another uid",
			prelude: "* 1 FETCH (UID 1 BODY[] {5}\r\nWRONG)\r\n",
		},
		{
			name:    "literal in a non-body item",
			prelude: "* 2 FETCH (UID 2 X-GM-LABELS ({5}\r\nWRONG))\r\n",
		},
		{
			name:    "body of another uid announced after it",
			prelude: "* 1 FETCH (BODY[] {5}\r\nWRONG UID 1)\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeIMAP(t)
			f.bodyPrelude = tt.prelude
			tr := newTestIMAP(f, nil)
			defer tr.Close()

			rc, err := tr.DownloadBody(context.Background(), models.MessageMetadata{FolderID: "INBOX", ServerID: "2", BlobID: "2"})
			require.NoError(t, err)
			body, err := io.ReadAll(rc)
			require.NoError(t, err)

			assert.Equal(t, "Subject: two\r\n\r\nsecond", string(body))
		})
	}
}

func TestIMAP_DownloadBody_UIDAfterBody(t *testing.T) {
	f := newFakeIMAP(t)
	f.uidAfterBody = true
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	rc, err := tr.DownloadBody(context.Background(), models.MessageMetadata{FolderID: "INBOX", ServerID: "3", BlobID: "3"})
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, f.mailboxes["INBOX"][2].body, string(body))
}

func TestIMAP_DownloadBody_OnlyOtherUIDIsMissing(t *testing.T) {
	f := newFakeIMAP(t)
	f.bodyPrelude = "* 1 FETCH (UID 1 BODY[] {5}\r\nWRONG)\r\n"
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	rc, err := tr.DownloadBody(context.Background(), models.MessageMetadata{FolderID: "INBOX", ServerID: "42", BlobID: "42"})
	require.NoError(t, err)
	_, err = io.ReadAll(rc)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSameUID(t *testing.T) {
	assert.True(t, sameUID("7", "007"))
	assert.False(t, sameUID("7", "8"))
	assert.False(t, sameUID("", "7"))
	assert.False(t, sameUID("x", "x"))
}

func TestIMAP_DownloadBody_ReselectsFolder(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)
	defer tr.Close()

	_, err := tr.QueryIDs(context.Background(), "INBOX")
	require.NoError(t, err)
	_, err = tr.QueryIDs(context.Background(), "Archive")
	require.NoError(t, err)

	rc, err := tr.DownloadBody(context.Background(), models.MessageMetadata{FolderID: "INBOX", ServerID: "1", BlobID: "1"})
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, "Subject: one\r\n\r\nfirst", string(body))
	cmds := f.recorded()
	assert.Equal(t, `SELECT "INBOX"`, cmds[len(cmds)-2])
}

// ── Close ────────────────────────────────────────────────────────────────────

func TestIMAP_Close(t *testing.T) {
	f := newFakeIMAP(t)
	tr := newTestIMAP(f, nil)

	_, err := tr.FetchSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	assert.Equal(t, "LOGOUT", f.recorded()[len(f.recorded())-1])
	assert.NoError(t, tr.Close(), "second close is a no-op")
}

// ── helpers ──────────────────────────────────────────────────────────────────

func TestQuote(t *testing.T) {
	assert.Equal(t, `"INBOX"`, quote("INBOX"))
	assert.Equal(t, `"a \"b\" \\c"`, quote(`a "b" \c`))
}

func TestParseFetchItems(t *testing.T) {
	items := protocol.List{
		protocol.Atom("UID"), protocol.Atom("17"),
		protocol.Atom("RFC822.SIZE"), protocol.Atom("2048"),
		protocol.Atom("INTERNALDATE"), protocol.Atom("05-Jan-2024 08:00:00 +0000"),
		protocol.Atom("FLAGS"), protocol.List{protocol.Atom(`\Seen`)},
	}

	meta, err := parseFetchItems(items)

	require.NoError(t, err)
	assert.Equal(t, "17", meta.ServerID)
	assert.Equal(t, "17", meta.BlobID)
	assert.EqualValues(t, 2048, meta.Size)
	require.NotNil(t, meta.ReceivedAt)
	assert.Equal(t, 2024, meta.ReceivedAt.Year())
}

func TestParseFetchItems_Errors(t *testing.T) {
	tests := []struct {
		name  string
		items protocol.List
	}{
		{"missing uid", protocol.List{protocol.Atom("RFC822.SIZE"), protocol.Atom("1")}},
		{"bad uid", protocol.List{protocol.Atom("UID"), protocol.Atom("x")}},
		{"bad size", protocol.List{protocol.Atom("UID"), protocol.Atom("1"), protocol.Atom("RFC822.SIZE"), protocol.Atom("big")}},
		{"bad date", protocol.List{protocol.Atom("UID"), protocol.Atom("1"), protocol.Atom("INTERNALDATE"), protocol.Atom("yesterday")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFetchItems(tt.items)
			assert.ErrorIs(t, err, ErrServer)
		})
	}
}

func TestIMAPCommand_Verb(t *testing.T) {
	assert.Equal(t, "UID FETCH", imapCommand{line: "UID FETCH 1 BODY.PEEK[]"}.verb())
	assert.Equal(t, "SELECT", imapCommand{line: `SELECT "INBOX"`}.verb())
	assert.Equal(t, "LOGOUT", imapCommand{line: "LOGOUT"}.verb())
}
