package config

// configSchema is the JSON schema for subhub-infra.yaml. Store-specific
// keys under secretStore are intentionally open.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "secretStore"],
  "properties": {
    "version": {
      "type": "integer",
      "enum": [0]
    },
    "secretStore": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {
          "type": "string",
          "enum": ["azure.keyvault", "aws.secretsmanager", "gcp.secretmanager", "static", "mock"]
        }
      }
    },
    "looker": {
      "type": "object",
      "properties": {
        "base_url": {
          "type": "string",
          "pattern": "^https?://"
        },
        "timeout_seconds": {
          "type": "integer",
          "minimum": 1
        },
        "expiry_buffer_seconds": {
          "type": "integer",
          "minimum": 0
        },
        "ca_cert": {
          "type": "string"
        },
        "secrets": {
          "type": "object",
          "additionalProperties": {
            "type": "string"
          }
        }
      }
    },
    "warehouse": {
      "type": "object",
      "required": ["driver"],
      "properties": {
        "driver": {
          "type": "string",
          "enum": ["snowflake", "postgres", "postgresql", "mysql", "mariadb"]
        },
        "sslmode": {
          "type": "string"
        },
        "timeout_seconds": {
          "type": "integer",
          "minimum": 1
        },
        "secrets": {
          "type": "object",
          "additionalProperties": {
            "type": "string"
          }
        }
      }
    }
  }
}`
