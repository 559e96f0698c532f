// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the House Points API server.

House Points is the audience-voting backend for an elimination-style
show: viewers spend a daily points budget on nominated candidates,
weeks open and close voting windows, and admins record eliminations
and saves against the frozen results.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=house_points.db ADMIN_KEY_SALT=... go run main.go

Or with flags:

	go run main.go -p 3319 -d house_points.db -admin-salt ...

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3319)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - SHARE_BONUS_POINTS (-share-bonus): Daily share bonus (default: 60)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (seasons, candidates, weeks, voting, results, voters)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Key generation and validation
  - db: Connection opening and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
