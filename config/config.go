// Package config locates a node's root directory and reads the parts of its
// config.yaml needed to reach the full node RPC service.
package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"gopkg.in/yaml.v3"
)

const (
	RootEnv         = "CHIA_ROOT"
	DefaultRoot     = "~/.chia/mainnet"
	DefaultHostname = "localhost"
	DefaultRPCPort  = 8555

	// The node's private certificates are issued for this name.
	serverName = "chia.net"
)

// NodeConfig is the subset of config.yaml this tool reads.
type NodeConfig struct {
	SelfHostname string         `yaml:"self_hostname"`
	PrivateSSLCA SSLPair        `yaml:"private_ssl_ca"`
	FullNode     FullNodeConfig `yaml:"full_node"`

	root string
}

type SSLPair struct {
	Crt string `yaml:"crt"`
	Key string `yaml:"key"`
}

type FullNodeConfig struct {
	RPCPort int `yaml:"rpc_port"`
	SSL     struct {
		PrivateCrt string `yaml:"private_crt"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"ssl"`
}

// ResolveRoot picks the node root: flag, then $CHIA_ROOT, then the default.
// A leading ~ is expanded.
func ResolveRoot(flag string) (string, error) {
	root := flag
	if root == "" {
		root = os.Getenv(RootEnv)
	}
	if root == "" {
		root = DefaultRoot
	}
	if root == "~" || strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", bagerrors.ErrNodeConfig, err)
		}
		root = filepath.Join(home, strings.TrimPrefix(root, "~"))
	}
	return filepath.Abs(root)
}

// Load reads root/config/config.yaml and fills in defaults.
func Load(root string) (*NodeConfig, error) {
	path := filepath.Join(root, "config", "config.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bagerrors.ErrNodeConfig, err)
	}
	cfg := &NodeConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", bagerrors.ErrNodeConfig, path, err)
	}
	cfg.root = root
	if cfg.SelfHostname == "" {
		cfg.SelfHostname = DefaultHostname
	}
	if cfg.FullNode.RPCPort == 0 {
		cfg.FullNode.RPCPort = DefaultRPCPort
	}
	if cfg.PrivateSSLCA.Crt == "" {
		cfg.PrivateSSLCA.Crt = "config/ssl/ca/private_ca.crt"
	}
	if cfg.FullNode.SSL.PrivateCrt == "" {
		cfg.FullNode.SSL.PrivateCrt = "config/ssl/full_node/private_full_node.crt"
	}
	if cfg.FullNode.SSL.PrivateKey == "" {
		cfg.FullNode.SSL.PrivateKey = "config/ssl/full_node/private_full_node.key"
	}
	return cfg, nil
}

func (c *NodeConfig) Root() string {
	return c.root
}

// RPCURL is the base URL of the full node RPC service.
func (c *NodeConfig) RPCURL() string {
	return "https://" + net.JoinHostPort(c.SelfHostname, strconv.Itoa(c.FullNode.RPCPort))
}

// path resolves p against the node root unless it is absolute.
func (c *NodeConfig) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.root, p)
}

// TLSConfig authenticates to the full node with its private certificate and
// trusts only the node's private CA.
func (c *NodeConfig) TLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.path(c.FullNode.SSL.PrivateCrt), c.path(c.FullNode.SSL.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: client certificate: %v", bagerrors.ErrNodeConfig, err)
	}
	caPEM, err := os.ReadFile(c.path(c.PrivateSSLCA.Crt))
	if err != nil {
		return nil, fmt.Errorf("%w: private CA: %v", bagerrors.ErrNodeConfig, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("%w: private CA %s holds no certificate", bagerrors.ErrNodeConfig, c.PrivateSSLCA.Crt)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ServerName:   serverName,
	}, nil
}
