package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"

	"github.com/diillson/equipment-lending/pkg/config"
	"gopkg.in/yaml.v3"
)

func main() {
	var (
		outputPath string
		force      bool
	)

	flag.StringVar(&outputPath, "output", "config.yaml", "Caminho para o arquivo de configuração de saída")
	flag.BoolVar(&force, "force", false, "Sobrescrever arquivo se existir")
	flag.Parse()

	if _, err := os.Stat(outputPath); err == nil && !force {
		fmt.Printf("Erro: arquivo %s já existe. Use --force para sobrescrever.\n", outputPath)
		os.Exit(1)
	}

	// Parte dos valores padrão, com exemplos nos campos que não têm default
	cfg := config.Default()
	cfg.Server.CertFile = "/path/to/cert.pem"
	cfg.Server.KeyFile = "/path/to/key.pem"
	cfg.Server.Domains = []string{"emprestimos.example.edu"}
	cfg.Auth.JWTSecret = "troque-por-um-segredo-de-32-caracteres-ou-mais"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Printf("Erro ao serializar configuração: %v\n", err)
		os.Exit(1)
	}

	yamlStr := string(data)
	comments := [][2]string{
		{`(\s+skipMigrations:\s+false)`, "# true pula as migrações SQL"},
		{`(\s+defaultFineRate:\s+\S+)`, "# multa por dia quando o equipamento não define taxa"},
		{`(\s+password:\s+admin123)`, "# troque após o primeiro login"},
		{`(\s+backend:\s+memory)`, "# memory ou redis"},
	}
	for _, c := range comments {
		re := regexp.MustCompile(c[0])
		yamlStr = re.ReplaceAllString(yamlStr, "$1  "+c[1])
	}

	if err := os.WriteFile(outputPath, []byte(yamlStr), 0644); err != nil {
		fmt.Printf("Erro ao escrever arquivo: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Arquivo de configuração gerado em: %s\n", outputPath)
}
