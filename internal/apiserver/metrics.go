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
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "apiserver_requests_total",
		Help: "Total requests served by the hostupdate API server, by path and status code.",
	}, []string{"path", "code"})

	tlsReloadTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "apiserver_tls_reload_total",
		Help: "Total number of times the API server reloaded its serving certificate from disk.",
	})
)

func init() {
	metrics.Registry.MustRegister(requestsTotal, tlsReloadTotal)
}

// RecordRequest records one served HTTP request.
func RecordRequest(path, code string) {
	requestsTotal.WithLabelValues(path, code).Inc()
}

// RecordTLSReload records one successful certificate reload.
func RecordTLSReload() {
	tlsReloadTotal.Inc()
}
