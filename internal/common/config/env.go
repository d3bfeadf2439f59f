package config

import (
	"errors"
	"os"
)

// Config represents the application configuration
// This struct contains all configuration parameters for the application
type Config struct {
	// AWS-specific configuration
	AWSRegion         string
	DynamoDBTableName string
	UserPoolID        string
	UserPoolClientID  string

	// Environment and region info
	Environment string
	Region      string

	// Notification webhook configuration. SecretID is the Secrets Manager id
	// of the HMAC signing secret; WebhookURL may be empty (webhooks disabled).
	WebhookURL      string
	WebhookSecretID string

	// Lambda detection flag (cached)
	isLambda bool
}

// LoadFromEnv loads the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}

	// Required environment variables
	cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
	if cfg.DynamoDBTableName == "" {
		return nil, errors.New("DYNAMODB_TABLE_NAME environment variable is required")
	}

	cfg.UserPoolID = os.Getenv("USER_POOL_ID")
	if cfg.UserPoolID == "" {
		return nil, errors.New("USER_POOL_ID environment variable is required")
	}

	cfg.UserPoolClientID = os.Getenv("USER_POOL_CLIENT_ID")
	if cfg.UserPoolClientID == "" {
		return nil, errors.New("USER_POOL_CLIENT_ID environment variable is required")
	}

	// Environment and region info
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "dev" // Default to dev environment
	}

	cfg.Region = os.Getenv("REGION")
	if cfg.Region == "" {
		cfg.Region = "jp"
	}

	// AWS Region
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		// Default AWS regions based on our region code
		switch cfg.Region {
		case "us":
			cfg.AWSRegion = "us-west-2"
		case "eu":
			cfg.AWSRegion = "eu-west-1"
		case "jp":
			cfg.AWSRegion = "ap-northeast-1"
		default:
			cfg.AWSRegion = "ap-northeast-1" // Default fallback
		}
	}

	cfg.WebhookURL = os.Getenv("NOTIFICATION_WEBHOOK_URL")
	cfg.WebhookSecretID = os.Getenv("NOTIFICATION_WEBHOOK_SECRET_ID")

	// Check if running in Lambda
	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	return cfg, nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// IsLambda returns true if the application is running in AWS Lambda
func (c *Config) IsLambda() bool {
	return c.isLambda
}
