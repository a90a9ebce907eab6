package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/nhle/seminar-digest/internal/logging"
	"github.com/nhle/seminar-digest/internal/model"
)

// DefaultPort is the IMAP-over-TLS port.
const DefaultPort = 993

// dialFunc opens an IMAP connection.
type dialFunc func(addr string, opts *imapclient.Options) (*imapclient.Client, error)

// Options configures a Retriever.
type Options struct {
	Port           int
	Mailbox        string
	AllowedSenders []string
	MaxPartDepth   int
	Logger         *zap.Logger
}

// Retriever pulls invitation messages from an IMAP mailbox.
type Retriever struct {
	port     int
	mailbox  string
	maxDepth int
	filter   SenderFilter
	logger   *zap.Logger

	dial dialFunc
	now  func() time.Time
}

// NewRetriever creates a Retriever that connects over implicit TLS.
func NewRetriever(opts Options) *Retriever {
	port := opts.Port
	if port <= 0 {
		port = DefaultPort
	}
	mailbox := opts.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &Retriever{
		port:     port,
		mailbox:  mailbox,
		maxDepth: opts.MaxPartDepth,
		filter:   NewSenderFilter(opts.AllowedSenders),
		logger:   logging.OrNop(opts.Logger),
		dial:     imapclient.DialTLS,
		now:      time.Now,
	}
}

// connect dials the server and authenticates. The caller owns the returned
// client and must log out.
func (r *Retriever) connect(q Query) (*imapclient.Client, error) {
	addr := net.JoinHostPort(q.Host, strconv.Itoa(r.port))

	client, err := r.dial(addr, &imapclient.Options{
		TLSConfig:   &tls.Config{ServerName: q.Host},
		WordDecoder: wordDecoder,
	})
	if err != nil {
		return nil, &ConnectionError{Host: addr, Stage: StageDial, Err: err}
	}

	if err := client.Login(q.Address, q.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, &ConnectionError{
			Host:  addr,
			Stage: StageLogin,
			Err:   fmt.Errorf("authentication failed for %s: %w", q.Address, err),
		}
	}

	return client, nil
}

// FetchMessages connects to the mailbox, searches for messages received
// since the lookback cutoff, and returns those sent from an allowed
// address, in search-result order. Messages that fail to parse are logged
// and skipped; session failures abort the call with a ConnectionError.
func (r *Retriever) FetchMessages(
	ctx context.Context, q Query,
) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := r.connect(q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	// imapclient commands do not take a context; closing the connection
	// unblocks any pending Wait.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	addr := net.JoinHostPort(q.Host, strconv.Itoa(r.port))
	fail := func(stage Stage, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return &ConnectionError{Host: addr, Stage: stage, Err: err}
	}

	if _, err := client.Select(r.mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fail(StageSelect, fmt.Errorf("selecting %s: %w", r.mailbox, err))
	}

	since := r.now().AddDate(0, 0, -q.LookbackDays)
	searchData, err := client.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fail(StageSearch, err)
	}

	uids := searchData.AllUIDs()
	r.logger.Info("found messages in date range",
		zap.String("mailbox", r.mailbox),
		zap.Time("since", since),
		zap.Int("count", len(uids)),
	)
	if len(uids) == 0 {
		return nil, nil
	}

	raw, err := r.fetchRaw(client, uids)
	if err != nil {
		return nil, fail(StageFetch, err)
	}

	messages := make([]model.Message, 0, len(uids))
	for _, uid := range uids {
		body, ok := raw[uid]
		if !ok {
			r.logger.Warn("message missing from fetch response", zap.Uint32("uid", uint32(uid)))
			continue
		}

		msg, ok := r.toMessage(uint32(uid), body)
		if !ok {
			continue
		}
		messages = append(messages, msg)
	}

	r.logger.Info("filtered messages",
		zap.Int("searched", len(uids)),
		zap.Int("kept", len(messages)),
	)
	return messages, nil
}

// fetchRaw downloads the full body of every UID without setting \Seen.
func (r *Retriever) fetchRaw(
	client *imapclient.Client, uids []imap.UID,
) (map[imap.UID][]byte, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	raw := make(map[imap.UID][]byte, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			r.logger.Warn("skipping unreadable fetch response",
				zap.Uint32("seq", msg.SeqNum),
				zap.Error(err),
			)
			continue
		}

		body := buf.FindBodySection(bodySection)
		if len(body) == 0 {
			r.logger.Warn("empty body, skipping", zap.Uint32("uid", uint32(buf.UID)))
			continue
		}
		raw[buf.UID] = body
	}

	if err := fetchCmd.Close(); err != nil {
		return raw, fmt.Errorf("fetching messages: %w", err)
	}
	return raw, nil
}

// toMessage parses and filters one raw message. It reports false when the
// message is skipped.
func (r *Retriever) toMessage(uid uint32, raw []byte) (model.Message, bool) {
	parsed, err := ParseMessage(raw, r.maxDepth)
	if err != nil {
		r.logger.Warn("skipping message", zap.Error(&MessageParseError{UID: uid, Err: err}))
		return model.Message{}, false
	}

	if !r.filter.Allows(parsed.Sender) {
		r.logger.Debug("sender not allowed",
			zap.Uint32("uid", uid),
			zap.String("sender", parsed.Sender),
		)
		return model.Message{}, false
	}

	return model.Message{
		Sender:  parsed.Sender,
		Subject: parsed.Subject,
		Body:    ExtractBody(parsed.Parts),
	}, true
}
