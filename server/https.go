// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"crypto/tls"

	"rivaas.dev/appserver/object"
)

// TLSConfigurer is implemented by transports that accept a TLS
// configuration before binding. The nethttp reference listener implements
// it.
type TLSConfigurer interface {
	ConfigureTLS(conf *tls.Config)
}

// HTTPSServer is HTTPServer plus a mandatory certificate check: every
// configured hostname must resolve through the owning supervisor's
// certificate map before the listener is ever started.
type HTTPSServer struct {
	HTTPServer
	Hostnames []string
	Certs     CertificateProvider
}

var (
	_ object.Procedure     = (*HTTPSServer)(nil)
	_ object.Initializable = (*HTTPSServer)(nil)
)

// NewHTTPSServer constructs a TLS server wrapper over the same listener
// contract as NewHTTPServer. certs is normally the supervisor itself.
func NewHTTPSServer(root *HTTPServer, hostnames []string, certs CertificateProvider) *HTTPSServer {
	return &HTTPSServer{HTTPServer: *root, Hostnames: hostnames, Certs: certs}
}

// Initialize loads the TLS key pair for every configured hostname, failing
// fast with MissingCertificateError when one is absent, hands the
// assembled tls.Config to the listener if it accepts one, and
// deep-initializes the root dispatch tree.
func (s *HTTPSServer) Initialize(ctx *object.Context) error {
	if s.Certs == nil || len(s.Hostnames) == 0 {
		return MissingCertificateError{Hostname: ""}
	}

	conf := &tls.Config{}
	for _, h := range s.Hostnames {
		c, ok := s.Certs.Certificate(h)
		if !ok {
			return MissingCertificateError{Hostname: h}
		}
		pair, err := tls.X509KeyPair(c.Cert, c.Key)
		if err != nil {
			return err
		}
		conf.Certificates = append(conf.Certificates, pair)
	}

	if tc, ok := s.Listener.(TLSConfigurer); ok {
		tc.ConfigureTLS(conf)
	}
	return s.HTTPServer.Initialize(ctx)
}
