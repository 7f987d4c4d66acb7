package ping

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-pinger/pkg/solana"
)

var ErrInvalidEndpoint = errors.New("invalid rpc endpoint")

// Connection is a handle to a ledger endpoint. It is read only once created.
type Connection struct {
	client     solana.Client
	endpoint   string
	commitment solana.Commitment
}

// Connect validates endpoint and commitment and builds a client for them. No
// request is made until a later stage uses the connection.
func Connect(endpoint, commitment string, opts ...solana.ClientOption) (*Connection, error) {
	parsedCommitment, err := parseConnectParams(endpoint, commitment)
	if err != nil {
		return nil, err
	}

	return newConnection(solana.New(endpoint, opts...), endpoint, parsedCommitment), nil
}

// NewConnection wraps an existing client, after the same validation Connect
// performs.
func NewConnection(client solana.Client, endpoint, commitment string) (*Connection, error) {
	parsedCommitment, err := parseConnectParams(endpoint, commitment)
	if err != nil {
		return nil, err
	}

	return newConnection(client, endpoint, parsedCommitment), nil
}

func newConnection(client solana.Client, endpoint string, commitment solana.Commitment) *Connection {
	logrus.StandardLogger().WithFields(logrus.Fields{
		"type":       "ping/connect",
		"endpoint":   endpoint,
		"commitment": commitment.String(),
	}).Info("Connection to cluster established")

	return &Connection{
		client:     client,
		endpoint:   endpoint,
		commitment: commitment,
	}
}

func parseConnectParams(endpoint, commitment string) (solana.Commitment, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return solana.Commitment{}, configurationError(StageConnect, err)
	}

	parsed, err := solana.ParseCommitment(commitment)
	if err != nil {
		return solana.Commitment{}, configurationError(StageConnect, err)
	}

	return parsed, nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.Wrap(ErrInvalidEndpoint, err.Error())
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Wrapf(ErrInvalidEndpoint, "unsupported scheme %q", u.Scheme)
	}
	if len(u.Host) == 0 {
		return errors.Wrapf(ErrInvalidEndpoint, "%q has no host", endpoint)
	}

	return nil
}

func (c *Connection) Client() solana.Client {
	return c.client
}

func (c *Connection) Endpoint() string {
	return c.endpoint
}

func (c *Connection) Commitment() solana.Commitment {
	return c.commitment
}
