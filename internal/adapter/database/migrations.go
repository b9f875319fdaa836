package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration registra um arquivo SQL já aplicado
type Migration struct {
	ID        uint  `gorm:"primaryKey"`
	Version   int64 `gorm:"uniqueIndex"`
	Name      string
	AppliedAt time.Time
}

// TableName define o nome da tabela
func (Migration) TableName() string {
	return "schema_migrations"
}

// MigrationFile representa um arquivo de migração (formato: YYYYMMDDHHMMSS_nome.sql)
type MigrationFile struct {
	Version int64
	Name    string
	Path    string
}

// MigrationManager aplica os arquivos SQL complementares ao AutoMigrate das entidades
type MigrationManager struct {
	db        *gorm.DB
	logger    *zap.Logger
	directory string
}

// NewMigrationManager cria um novo gerenciador de migrações
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, directory string) *MigrationManager {
	return &MigrationManager{
		db:        db,
		logger:    logger,
		directory: directory,
	}
}

// ApplyMigrations aplica, em ordem de versão, os arquivos ainda não registrados.
// Cada arquivo roda na sua própria transação junto com o registro da versão.
func (m *MigrationManager) ApplyMigrations(ctx context.Context) (int, error) {
	if m.directory == "" {
		return 0, nil
	}

	if err := m.db.WithContext(ctx).AutoMigrate(&Migration{}); err != nil {
		return 0, fmt.Errorf("falha ao criar tabela de migrações: %w", err)
	}

	var applied []Migration
	if err := m.db.WithContext(ctx).Order("version").Find(&applied).Error; err != nil {
		return 0, fmt.Errorf("falha ao buscar migrações aplicadas: %w", err)
	}
	done := make(map[int64]bool, len(applied))
	for _, migration := range applied {
		done[migration.Version] = true
	}

	files, err := m.findMigrationFiles()
	if err != nil {
		return 0, fmt.Errorf("falha ao listar arquivos de migração: %w", err)
	}

	count := 0
	for _, file := range files {
		if done[file.Version] {
			continue
		}

		content, err := os.ReadFile(file.Path)
		if err != nil {
			return count, fmt.Errorf("falha ao ler arquivo de migração: %w", err)
		}

		m.logger.Info("Aplicando migração", zap.Int64("version", file.Version), zap.String("name", file.Name))

		err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, stmt := range splitSQLCommands(string(content)) {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("falha ao executar migração %d: %w", file.Version, err)
				}
			}
			return tx.Create(&Migration{Version: file.Version, Name: file.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// splitSQLCommands divide o conteúdo em comandos, ignorando ';' dentro de strings e comentários de linha
func splitSQLCommands(sql string) []string {
	var (
		commands      []string
		current       strings.Builder
		inString      bool
		inLineComment bool
	)

	flush := func() {
		cmd := strings.TrimSpace(current.String())
		if cmd != "" && !isOnlyComments(cmd) {
			commands = append(commands, cmd)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		switch {
		case inLineComment:
			if ch == '\n' {
				inLineComment = false
			}
			current.WriteByte(ch)
		case !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			inLineComment = true
			current.WriteByte(ch)
		case ch == '\'':
			inString = !inString
			current.WriteByte(ch)
		case ch == ';' && !inString:
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()

	return commands
}

func isOnlyComments(cmd string) bool {
	for _, line := range strings.Split(cmd, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

// findMigrationFiles encontra os arquivos .sql do diretório, ordenados por versão.
// Diretório inexistente não é erro: as entidades já são criadas via AutoMigrate.
func (m *MigrationManager) findMigrationFiles() ([]MigrationFile, error) {
	var files []MigrationFile

	err := filepath.WalkDir(m.directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}

		parts := strings.SplitN(d.Name(), "_", 2)
		if len(parts) != 2 {
			m.logger.Warn("Formato de arquivo de migração inválido", zap.String("file", d.Name()))
			return nil
		}

		version, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			m.logger.Warn("Versão de migração inválida", zap.String("file", d.Name()))
			return nil
		}

		files = append(files, MigrationFile{
			Version: version,
			Name:    strings.TrimSuffix(parts[1], ".sql"),
			Path:    path,
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})

	return files, nil
}

// CreateMigration cria um novo arquivo de migração vazio
func (m *MigrationManager) CreateMigration(name string) (string, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if name == "" {
		return "", errors.New("nome da migração é obrigatório")
	}

	if err := os.MkdirAll(m.directory, 0o755); err != nil {
		return "", fmt.Errorf("falha ao criar diretório: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), name)
	path := filepath.Join(m.directory, filename)

	if err := os.WriteFile(path, []byte("-- "+name+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("falha ao criar arquivo: %w", err)
	}

	return path, nil
}
