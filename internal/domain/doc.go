// Package domain models Vietnamese disaster news: articles admitted from
// publisher feeds, the events they are clustered into, and the publisher
// catalogue.
//
// # Hazard taxonomy
//
// Every article carries one hazard label from a closed taxonomy:
//
//	storm            bão, áp thấp nhiệt đới (ATNĐ)
//	storm_surge      nước dâng do bão, triều cường
//	flood_landslide  lũ, lũ quét, ngập lụt, sạt lở, mưa lớn
//	heat_drought     nắng nóng, hạn hán, xâm nhập mặn
//	wind_fog         gió mạnh, sương mù, không khí lạnh
//	extreme_weather  lốc, sét, mưa đá, rét hại, sương muối
//	wildfire         cháy rừng
//	quake_tsunami    động đất, sóng thần
//	warning_forecast bulletins and warnings
//	recovery         relief and reconstruction
//	marine           incidents at sea (tàu cá, ngư dân)
//
// When a text matches several labels the primary one is chosen by the fixed
// order in [HazardPriority].
//
// # Provinces
//
// Province tags use the 34 provincial units in force since the July 2025
// merger. Articles that only name a region (Biển Đông, Tây Nguyên, Nam Bộ, ...)
// carry the region name; anything else is "unknown".
//
// # Events
//
// An event is keyed "{type}|{province}|{YYYYMMDDHHMM}" from the first
// article's publication time, with "_n" appended on collision. Its aggregates
// are pure functions of the live child set:
//
//	started_at       min(published_at)
//	last_updated_at  max(published_at)
//	deaths ...       max over children
//	sources_count    distinct source names among approved and pending articles
//	confidence       see the ladder in package eventmatch
//
// Deleting an event rejects its articles and blacklists their news hashes.
//
// # News hash
//
// news_hash is the first 12 hex characters of md5(domain || normalized title ||
// canonical url). It identifies an item across re-crawls and is what the
// blacklist stores.
package domain
