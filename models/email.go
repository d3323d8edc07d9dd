package models

type DigestItem struct {
	Title    string
	Author   string
	Flair    string
	Language string
	Body     string
	URL      string
	Comments int
}

type Email struct {
	To      string
	Subject string
	Body    string
}
