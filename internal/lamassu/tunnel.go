/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lamassu

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"lamassu-dca-go/internal/models"
)

// sshTunnel holds an SSH connection used to reach a Postgres server that is
// not exposed directly. Database connections dial through it.
type sshTunnel struct {
	client *ssh.Client
}

// dialTunnel opens the SSH connection described by cfg. A private key takes
// precedence over a password when both are configured.
func dialTunnel(cfg *models.RemoteConfig, timeout time.Duration) (*sshTunnel, error) {
	var auth []ssh.AuthMethod
	if cfg.SSHPrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(cfg.SSHPrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ssh private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	} else if cfg.SSHPassword != "" {
		auth = append(auth, ssh.Password(cfg.SSHPassword))
	} else {
		return nil, fmt.Errorf("ssh tunnel enabled but no private key or password configured")
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.SSHUsername,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(cfg.SSHHost, fmt.Sprintf("%d", cfg.SSHPort))
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh %s: %w", addr, err)
	}
	return &sshTunnel{client: client}, nil
}

// Dial opens a connection to addr through the tunnel. It satisfies the
// pgconn DialFunc signature apart from the context, which the SSH client
// API does not accept.
func (t *sshTunnel) Dial(network, addr string) (net.Conn, error) {
	return t.client.Dial(network, addr)
}

func (t *sshTunnel) Close() error {
	return t.client.Close()
}
