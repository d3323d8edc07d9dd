package enums

// Category selects the listing endpoint. The user* variants read a user's
// submitted posts instead of a subreddit.
type Category string

const (
	CategoryHot     Category = "hot"
	CategoryTop     Category = "top"
	CategoryNew     Category = "new"
	CategoryUserHot Category = "userhot"
	CategoryUserTop Category = "usertop"
	CategoryUserNew Category = "usernew"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryHot, CategoryTop, CategoryNew, CategoryUserHot, CategoryUserTop, CategoryUserNew:
		return true
	}
	return false
}

func (c Category) IsUser() bool {
	return c == CategoryUserHot || c == CategoryUserTop || c == CategoryUserNew
}

// Path returns the listing path relative to the subreddit or user URL.
func (c Category) Path() string {
	switch c {
	case CategoryHot:
		return "hot.json"
	case CategoryTop:
		return "top.json"
	case CategoryNew:
		return "new.json"
	case CategoryUserHot:
		return "submitted/hot.json"
	case CategoryUserTop:
		return "submitted/top.json"
	case CategoryUserNew:
		return "submitted/new.json"
	}
	return ""
}

type TimeFilter string

const (
	TimeFilterHour  TimeFilter = "hour"
	TimeFilterDay   TimeFilter = "day"
	TimeFilterWeek  TimeFilter = "week"
	TimeFilterMonth TimeFilter = "month"
	TimeFilterYear  TimeFilter = "year"
	TimeFilterAll   TimeFilter = "all"
)

func (t TimeFilter) Valid() bool {
	switch t {
	case TimeFilterHour, TimeFilterDay, TimeFilterWeek, TimeFilterMonth, TimeFilterYear, TimeFilterAll:
		return true
	}
	return false
}

type SearchSort string

const (
	SearchSortRelevance SearchSort = "relevance"
	SearchSortHot       SearchSort = "hot"
	SearchSortTop       SearchSort = "top"
	SearchSortNew       SearchSort = "new"
	SearchSortComments  SearchSort = "comments"
)

func (s SearchSort) Valid() bool {
	switch s {
	case SearchSortRelevance, SearchSortHot, SearchSortTop, SearchSortNew, SearchSortComments:
		return true
	}
	return false
}
