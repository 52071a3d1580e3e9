package mcpserver

// RecordContract describes the asset record fields for LLM consumers of the
// MCP tools.
const RecordContract = `# Othala Asset Record Contract

Every asset record has the following fields.

| Field | Type | Notes |
|---|---|---|
| id | string | Assigned at creation (` + "`asset_<32 hex>`" + `), immutable. |
| name | string | REQUIRED, non-empty after trimming whitespace. Max 255 chars. |
| brand | string | Optional, default "". Max 255 chars. |
| category | string | Optional free-form category, default "". Max 255 chars. |
| value | number | Purchase/replacement value. Invalid input coerces to 0. |
| purchase_at | date or null | ISO date (2024-01-31) or RFC 3339. Null = unknown. |
| warranty_until | date or null | Null = no warranty tracked. |
| manual_md | string | Markdown manual notes, default "". Max 65535 chars. |
| maintenance_md | string | Markdown maintenance log, default "". Max 65535 chars. |
| created_at / updated_at | datetime | Managed by the store. |

## Derived entities

Each record projects exactly seven entities with deterministic ids
` + "`othala_<asset id>_<field>`" + `:

- date kind: purchase_at, warranty_until (the warranty entity carries an
  expired flag once the date passes)
- text kind: brand, category, manual_md, maintenance_md (state truncated to
  255 chars, full content in raw)
- number kind: value

Entities are created, updated, and removed together with their record; do
not address them directly for writes — use the update_asset tool.
`
