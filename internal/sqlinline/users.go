package sqlinline

const QInsertUser = `--sql 9858bd6c-2e5f-4845-86e5-72b8652f8b3f
insert into users(email, password_hash, plan, daily_limit, subscription_id, created_at)
values ($1::text, $2::text, 'free', $3::int, null, now())
on conflict (email) do nothing;
`

const QSelectUserByEmail = `--sql 814352ae-b2dd-463b-abb8-bddf6385b56a
select email, password_hash, plan, daily_limit, coalesce(subscription_id, ''), created_at
from users
where email = $1::text;
`

const QUpdateUserPlan = `--sql 14cec971-cab5-41b7-b7a7-ff2a31219d42
update users
set plan = $2::text, daily_limit = $3::int, subscription_id = nullif($4::text, '')
where email = $1::text;
`
