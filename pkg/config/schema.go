package config

// Schema is the JSON schema for validating configuration files
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "properties": {
        "settings": {
            "type": "object",
            "properties": {
                "user": {
                    "type": "string"
                },
                "port": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 65535
                },
                "password": {
                    "type": "string"
                },
                "identity": {
                    "type": "string",
                    "description": "Private key as a file path or raw PEM content"
                },
                "passphrase": {
                    "type": "string"
                },
                "password_file": {
                    "type": "string"
                },
                "transcript_retention": {
                    "type": "integer",
                    "minimum": 0
                }
            }
        },
        "remotes": {
            "type": "array",
            "minItems": 1,
            "items": {
                "type": "object",
                "properties": {
                    "name": {
                        "type": "string",
                        "pattern": "^[a-zA-Z0-9_-]+$"
                    },
                    "host": {
                        "type": "string"
                    },
                    "port": {
                        "type": "integer",
                        "minimum": 1,
                        "maximum": 65535
                    },
                    "user": {
                        "type": "string"
                    },
                    "password": {
                        "type": "string"
                    },
                    "identity": {
                        "type": "string"
                    },
                    "passphrase": {
                        "type": "string"
                    },
                    "commands": {
                        "type": "array",
                        "items": {
                            "type": "string"
                        }
                    },
                    "destinations": {
                        "type": "array",
                        "items": {
                            "type": "string"
                        }
                    },
                    "enabled": {
                        "type": "boolean"
                    }
                },
                "required": ["name", "host"]
            }
        },
        "storage": {
            "type": "object",
            "properties": {
                "temp_dir": {
                    "type": "string"
                },
                "destinations": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "name": {
                                "type": "string"
                            },
                            "type": {
                                "type": "string",
                                "enum": ["local", "s3", "backblaze", "sftp"]
                            },
                            "enabled": {
                                "type": "boolean"
                            },
                            "base_dir": {
                                "type": "string"
                            },
                            "options": {
                                "type": "object"
                            }
                        },
                        "required": ["name", "type"]
                    }
                }
            }
        },
        "max_concurrent_sessions": {
            "type": "integer",
            "minimum": 1
        },
        "log_level": {
            "type": "string",
            "enum": ["debug", "info", "warn", "error"]
        },
        "log_format": {
            "type": "string",
            "enum": ["json", "console"]
        }
    },
    "required": ["remotes"]
}`
