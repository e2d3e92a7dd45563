/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apiserver

import (
	"context"
	"crypto/tls"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/certwatcher"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// defaultReloadInterval is used when Config.ReloadEvery is unset. The
// operator's cert-manager renewal cadence is measured in days, so ten
// minutes is frequent enough to pick up a rotated certificate well before
// the old one expires.
const defaultReloadInterval = 10 * time.Minute

// certReloader wraps controller-runtime's certwatcher but drives its
// refresh off a fixed-interval ticker instead of certwatcher.Start's
// fsnotify loop: this process's deployment mounts certs from a secret
// volume whose update propagation delay makes polling the more predictable
// of the two choices.
type certReloader struct {
	watcher  *certwatcher.CertWatcher
	interval time.Duration
}

func newCertReloader(certFile, keyFile string, interval time.Duration) (*certReloader, error) {
	if interval <= 0 {
		interval = defaultReloadInterval
	}
	w, err := certwatcher.New(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &certReloader{watcher: w, interval: interval}, nil
}

// GetCertificate satisfies tls.Config.GetCertificate.
func (c *certReloader) GetCertificate(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return c.watcher.GetCertificate(chi)
}

// run polls for a certificate change every interval until ctx is canceled.
// It never returns an error to the caller: a failed reload just means the
// previously loaded certificate keeps serving until the next tick.
func (c *certReloader) run(ctx context.Context) {
	logger := log.FromContext(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.watcher.ReadCertificate(); err != nil {
				logger.Error(err, "reloading TLS certificate")
				continue
			}
			RecordTLSReload()
		}
	}
}
