package sqlinline

const QSelectIntegrationToken = `--sql 78555611-0a13-4265-b8ec-eaa0071f9833
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 98d75764-f83c-4644-a902-94532dbf62a9
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
  token = excluded.token,
  properties = excluded.properties,
  updated_at = now();
`
