package utils

import (
	"fmt"
	"os"
	"strings"
)

// SecretsDir - путь по умолчанию для Docker Secrets.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла в стандартном пути Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadSecretOrEnv читает секрет из файла, а при его отсутствии берет значение
// из переменной окружения envKey. Нужен для локального запуска без Docker.
func ReadSecretOrEnv(secretName, envKey string) (string, error) {
	secret, err := ReadSecret(secretName)
	if err == nil {
		return secret, nil
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("secret %s not found in files or env %s: %w", secretName, envKey, err)
}
