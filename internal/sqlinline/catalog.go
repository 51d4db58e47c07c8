package sqlinline

// Unclassified rows sort first so a bounded batch always revisits them.
const QListProductsForNormalization = `--sql f9a4040d-9121-4c64-90f7-38cdcbb01164
select
  id::text,
  items_detected
from product_catalog
order by (primary_category is null) desc, id
limit $1::int;
`

const QSelectImageURLsByIDs = `--sql 4d394659-cc76-4f60-a760-ef9cb846ee65
select id::text, image_url
from product_catalog
where id = any($1)
  and image_url is not null
  and btrim(image_url) <> '';
`

const QUpdateProductClassification = `--sql 007a5b50-69a8-49f7-aa1f-f21068229dfe
update product_catalog set
  primary_category = $2::text,
  sub_category = $3::text,
  primary_color = $4::text,
  color_variant = nullif(btrim($5::text), ''),
  primary_style = nullif(btrim($6::text), '')
where id = $1;
`

const QListCatalogProducts = `--sql 1c3621dc-46d7-4cbd-9ae7-88f658fbb4d4
select
  id::text,
  coalesce(title, ''),
  image_url,
  primary_category,
  sub_category,
  primary_color,
  color_variant,
  primary_style
from product_catalog
where ($1::text = '' or lower(primary_category) = lower($1::text))
order by title nulls last, id
limit $2::int;
`
