// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config assembles smsbot's configuration into one explicit
// Config value. Nothing downstream reads the process environment: the
// CLI calls Load once and passes the result to bot.New.
//
// Sources, lowest precedence first:
//
//  1. A YAML file: Options.File, or the SMSBOT_CONFIG variable.
//  2. A dotenv file: Options.EnvFile, or the nearest ".env" found by
//     walking up from Options.SearchFrom. Parsed with gotenv; the
//     process environment is left untouched.
//  3. Variables from Options.Lookup (os.LookupEnv in production).
//  4. Command-line flags, applied by the caller with ApplyOverrides.
//
// The dotenv and environment keys are the MATRIX_* names used by
// existing deployments (MATRIX_SERVER, MATRIX_USERNAME, MATRIX_PASSWORD,
// MATRIX_ROOM_ID), plus MATRIX_PASSWORD_FILE, MATRIX_USER_DOMAIN,
// MATRIX_TOKEN_FILE and MATRIX_TOKEN_KEY_FILE.
package config
