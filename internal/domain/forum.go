package domain

// Post is one forum submission as returned by a board listing.
type Post struct {
	ID          string
	Title       string
	Author      string
	Board       string
	Permalink   string
	SelfText    string
	Score       int
	NumComments int
}

// Link is the canonical form used everywhere a post is referenced: raw
// exports, de-duplication and the "Posts Analyzed" count.
func (p Post) Link() string {
	return "https://reddit.com" + p.Permalink
}

// Reply is a second-level comment. Only one reply level is fetched.
type Reply struct {
	Body  string
	Score int
}

// Comment is a top-level comment with its ranked replies.
type Comment struct {
	Body    string
	Score   int
	Replies []Reply
}

// Thread is a post together with its full top-level comment set, in the
// order the provider returned them.
type Thread struct {
	Post     Post
	Comments []Comment
}

// Email is one filtered newsletter message.
type Email struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}
