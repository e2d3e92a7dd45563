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

// Package main is the entry point for the hostupdate API server: the sole
// path through which agents read and write shadow state (spec.md §4.4).
package main

import (
	"flag"
	"os"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	v2 "in-cloud.io/hostupdate/api/v2"
	"in-cloud.io/hostupdate/internal/apiserver"
)

var setupLog = ctrl.Log.WithName("setup")

func main() {
	var addr string
	var certFile string
	var keyFile string
	var reloadEvery time.Duration

	flag.StringVar(&addr, "bind-address", ":8443", "Address the API server listens on.")
	flag.StringVar(&certFile, "tls-cert-file", "/var/run/hostupdate-apiserver/tls.crt", "TLS certificate file.")
	flag.StringVar(&keyFile, "tls-key-file", "/var/run/hostupdate-apiserver/tls.key", "TLS private key file.")
	flag.DurationVar(&reloadEvery, "tls-reload-interval", 10*time.Minute, "How often to re-read the TLS certificate from disk.")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		setupLog.Error(err, "unable to add client-go scheme")
		os.Exit(1)
	}
	if err := corev1.AddToScheme(scheme); err != nil {
		setupLog.Error(err, "unable to add corev1 scheme")
		os.Exit(1)
	}
	if err := v2.AddToScheme(scheme); err != nil {
		setupLog.Error(err, "unable to add hostupdate v2 scheme")
		os.Exit(1)
	}

	config := ctrl.GetConfigOrDie()

	rtClient, err := client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		setupLog.Error(err, "unable to create controller-runtime client")
		os.Exit(1)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		setupLog.Error(err, "unable to create kubernetes clientset")
		os.Exit(1)
	}

	handlers := &apiserver.Handlers{
		Client: rtClient,
		Cache:  apiserver.NewShadowCache(),
	}

	server, err := apiserver.NewServer(apiserver.Config{
		Addr:          addr,
		CertFile:      certFile,
		KeyFile:       keyFile,
		ReloadEvery:   reloadEvery,
		Handlers:      handlers,
		Authenticator: apiserver.NewTokenAuthenticator(clientset.AuthenticationV1().TokenReviews()),
		Converter:     &apiserver.ConversionHandler{},
	})
	if err != nil {
		setupLog.Error(err, "unable to build API server")
		os.Exit(1)
	}

	setupLog.Info("starting hostupdate API server", "addr", addr)
	if err := server.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "API server failed")
		os.Exit(1)
	}

	setupLog.Info("API server shutdown complete")
}
