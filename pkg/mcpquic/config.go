package mcpquic

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

const (
	ALPNProtocolMCP         = "pulse-mcp-v1"
	MagicBytesMCP           = "MCP1"
	MaxMessageSize          = 10 * 1024 * 1024 // one JSON-RPC line
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultIdleTimeout      = 5 * time.Minute
	DefaultKeepAlive        = 30 * time.Second
)

// QUICConfig is shared by the standalone listener, the chassis and the client.
func QUICConfig() *quic.Config {
	return &quic.Config{
		HandshakeIdleTimeout:       DefaultHandshakeTimeout,
		MaxStreamReceiveWindow:     MaxMessageSize,
		MaxConnectionReceiveWindow: 5 * MaxMessageSize,
		MaxIdleTimeout:             DefaultIdleTimeout,
		KeepAlivePeriod:            DefaultKeepAlive,
	}
}

// SelfSignedCert returns an ECDSA P-256 certificate for localhost, valid one year.
// Development only.
func SelfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("generate serial: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"Aadhaar Pulse Dev"}, CommonName: "localhost"},
		NotBefore:             now,
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("create certificate: %w", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}

// ServerTLSConfig loads certFile/keyFile, or generates a self-signed
// certificate when both are empty. protos lists the ALPN protocols to offer.
func ServerTLSConfig(certFile, keyFile string, protos ...string) (*tls.Config, error) {
	var (
		cert tls.Certificate
		err  error
	)
	if certFile == "" && keyFile == "" {
		cert, err = SelfSignedCert()
	} else {
		cert, err = tls.LoadX509KeyPair(certFile, keyFile)
	}
	if err != nil {
		return nil, err
	}
	if len(protos) == 0 {
		protos = []string{ALPNProtocolMCP}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   protos,
		MinVersion:   tls.VersionTLS13,
	}, nil
}

func ClientTLSConfig(insecure bool) *tls.Config {
	return &tls.Config{
		NextProtos:         []string{ALPNProtocolMCP},
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: insecure,
	}
}
