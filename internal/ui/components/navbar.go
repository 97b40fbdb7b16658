package components

// Navbar is the shared page header. FeedStatus is the server-side view of the
// backend push channel at render time; the page script keeps it current
// afterwards.
type Navbar struct {
	Active     string
	ShowLogout bool
	FeedStatus string
}

func NewNavbar(active string, showLogout bool, feedStatus string) Navbar {
	return Navbar{
		Active:     active,
		ShowLogout: showLogout,
		FeedStatus: feedStatus,
	}
}
