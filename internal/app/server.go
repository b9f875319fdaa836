package app

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	"github.com/diillson/equipment-lending/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

// Server é o servidor HTTP(S) da aplicação
type Server struct {
	*http.Server
	certFile string
	keyFile  string
	logger   *zap.Logger
}

// NewServer configura o servidor conforme server.tls: HTTP puro, certificados próprios ou Let's Encrypt
func NewServer(handler http.Handler, cfg config.ServerConfig, logger *zap.Logger) *Server {
	s := &Server{
		Server: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		logger: logger,
	}

	if !cfg.TLS {
		logger.Info("Iniciando em modo HTTP", zap.String("addr", s.Addr))
		return s
	}

	if hasCertificates(cfg, logger) {
		logger.Info("Usando certificados TLS fornecidos",
			zap.String("certFile", cfg.CertFile),
			zap.String("keyFile", cfg.KeyFile))

		s.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13}
		s.certFile = cfg.CertFile
		s.keyFile = cfg.KeyFile
		go startHTTPRedirector(http.HandlerFunc(redirectHTTPS), logger)
		return s
	}

	domains := validDomains(cfg.Domains)
	if len(domains) == 0 {
		logger.Warn("Nenhum domínio válido configurado para Let's Encrypt. Usando HTTP.",
			zap.Strings("domains", cfg.Domains))
		return s
	}

	certManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache("./certs"),
		Email:      os.Getenv("LETSENCRYPT_EMAIL"),
	}

	logger.Info("Inicializando Let's Encrypt", zap.Strings("domains", domains))

	s.Addr = ":443"
	s.TLSConfig = &tls.Config{
		GetCertificate: certManager.GetCertificate,
		MinVersion:     tls.VersionTLS13,
	}
	// desafios HTTP-01 e redirecionamento
	go startHTTPRedirector(certManager.HTTPHandler(http.HandlerFunc(redirectHTTPS)), logger)

	return s
}

// Start bloqueia servindo HTTP ou HTTPS
func (s *Server) Start() error {
	if s.TLSConfig == nil {
		return s.ListenAndServe()
	}
	s.logger.Info("Iniciando servidor HTTPS", zap.String("addr", s.Addr))
	return s.ListenAndServeTLS(s.certFile, s.keyFile)
}

func hasCertificates(cfg config.ServerConfig, logger *zap.Logger) bool {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return false
	}
	for _, file := range []string{cfg.CertFile, cfg.KeyFile} {
		if _, err := os.Stat(file); err != nil {
			logger.Error("Arquivo TLS não encontrado", zap.String("file", file), zap.Error(err))
			return false
		}
	}
	return true
}

func validDomains(domains []string) []string {
	valid := make([]string, 0, len(domains))
	for _, domain := range domains {
		if domain != "" && domain != "localhost" && domain != "127.0.0.1" {
			valid = append(valid, domain)
		}
	}
	return valid
}

func startHTTPRedirector(handler http.Handler, logger *zap.Logger) {
	httpServer := &http.Server{Addr: ":80", Handler: handler}

	logger.Info("Iniciando servidor HTTP para redirecionamento HTTPS", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Erro no servidor HTTP de redirecionamento", zap.Error(err))
	}
}

// redirectHTTPS redireciona HTTP -> HTTPS
func redirectHTTPS(w http.ResponseWriter, r *http.Request) {
	target := "https://" + r.Host + r.URL.Path
	if len(r.URL.RawQuery) > 0 {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}
