package sqlinline

const QInsertUsageEvent = `--sql 5eae3540-c387-430f-af4c-f595ddbe8a8b
insert into usage_events(id, identity_key, provider, country, requested, succeeded, failed, latency_ms, created_at)
values (gen_random_uuid(), $1::text, $2::text, nullif($3::text, ''), $4::int, $5::int, $6::int, $7::bigint, now());
`
