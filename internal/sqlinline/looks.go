package sqlinline

const QInsertSavedLook = `--sql 85a30caa-af96-418e-8951-03c18ce5e7a4
insert into saved_looks (id, user_id, media_url, created_at)
values ($1::uuid, $2::text, $3::text, now())
returning created_at;
`

const QListSavedLooksByUser = `--sql 7196ebe7-3319-4e8a-a86c-7b6e13f4b716
select id::text, user_id, media_url, created_at
from saved_looks
where user_id = $1::text
order by created_at desc
limit $2::int;
`
