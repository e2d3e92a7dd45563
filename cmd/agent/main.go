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

// Package main is the entry point for the hostupdate agent: the process
// that runs on each managed node, polls the host-local update API, and
// drives the node through the update state machine via its shadow.
package main

import (
	"crypto/tls"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"in-cloud.io/hostupdate/internal/agent"
	"in-cloud.io/hostupdate/pkg/hostapi"
	"in-cloud.io/hostupdate/pkg/shadowclient"
)

var setupLog = ctrl.Log.WithName("setup")

func main() {
	var nodeName string
	var hostRoot string
	var hostAPISocket string
	var apiServerURL string
	var tokenFile string
	var pollInterval time.Duration

	flag.StringVar(&nodeName, "node-name", os.Getenv("NODE_NAME"), "Name of the node this agent runs on")
	flag.StringVar(&hostRoot, "host-root", "/host", "Path prefix for host filesystem")
	flag.StringVar(&hostAPISocket, "host-api-socket", "/run/hostupdate/update.sock", "Unix domain socket for the host-local update API")
	flag.StringVar(&apiServerURL, "apiserver-url", os.Getenv("HOSTUPDATE_APISERVER_URL"), "Base URL of the hostupdate API server")
	flag.StringVar(&tokenFile, "token-file", "/var/run/secrets/kubernetes.io/serviceaccount/token", "Path to the bearer token presented to the API server")
	flag.DurationVar(&pollInterval, "poll-interval", 10*time.Second, "How often to poll the host API and reconcile")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if nodeName == "" {
		setupLog.Error(nil, "node-name is required (set NODE_NAME env or --node-name flag)")
		os.Exit(1)
	}
	if apiServerURL == "" {
		setupLog.Error(nil, "apiserver-url is required (set HOSTUPDATE_APISERVER_URL env or --apiserver-url flag)")
		os.Exit(1)
	}

	setupLog.Info("starting hostupdate agent", "node", nodeName, "hostRoot", hostRoot, "apiServer", apiServerURL)

	httpClient := &http.Client{
		Transport: &bearerTokenTransport{
			tokenFile: tokenFile,
			base: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		Timeout: 30 * time.Second,
	}

	shadows := shadowclient.NewClient(apiServerURL, httpClient)
	hostClient := hostapi.NewClient(hostAPISocket)

	agentInstance, err := agent.New(agent.Config{
		NodeName:     nodeName,
		Shadows:      shadows,
		HostAPI:      hostClient,
		HostRoot:     hostRoot,
		PollInterval: pollInterval,
	})
	if err != nil {
		setupLog.Error(err, "unable to create agent")
		os.Exit(1)
	}
	defer agentInstance.Close()

	ctx := ctrl.SetupSignalHandler()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		setupLog.Error(err, "unable to notify systemd of readiness")
	} else if !ok {
		setupLog.Info("systemd notification socket not present, skipping SdNotify")
	}

	setupLog.Info("agent initialized, starting main loop")
	if err := agentInstance.Run(ctx); err != nil {
		setupLog.Error(err, "agent failed")
		os.Exit(1)
	}

	setupLog.Info("agent shutdown complete")
}

// bearerTokenTransport re-reads the projected service account token file on
// every request rather than caching it once at startup, since kubelet
// rotates projected tokens in place well before this process would
// otherwise restart.
type bearerTokenTransport struct {
	tokenFile string
	base      http.RoundTripper
}

func (t *bearerTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := os.ReadFile(t.tokenFile)
	if err == nil {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+string(token))
	} else {
		setupLog.Error(err, "reading service account token, request will be sent unauthenticated")
	}
	return t.base.RoundTrip(req)
}
