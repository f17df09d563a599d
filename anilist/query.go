package anilist

import "fmt"

// animeSubquery is the selection set shared by every query.
var animeSubquery = `
id
title {
	romaji
	english
	native
}
description(asHtml: false)
tags {
	name
	rank
}
genres
coverImage {
	extraLarge
	large
}
startDate {
	year
	month
	day
}
synonyms
episodes
duration
siteUrl
averageScore
`

var searchByNameQuery = fmt.Sprintf(`
query ($query: String, $page: Int, $perPage: Int) {
	Page (page: $page, perPage: $perPage) {
		pageInfo {
			total
			hasNextPage
		}
		media (search: $query, type: ANIME) {
			%s
		}
	}
}
`, animeSubquery)

var searchByIDQuery = fmt.Sprintf(`
query ($id: Int) {
	Media (id: $id, type: ANIME) {
		%s
	}
}`, animeSubquery)
