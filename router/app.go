package router

// Alerter shows a message to the user
type Alerter interface {
	Alert(message string)
}

// AlerterFunc adapts a function to Alerter
type AlerterFunc func(message string)

func (f AlerterFunc) Alert(message string) {
	f(message)
}

// Route names of the application router
const (
	RouteGetPost = "getPost"
	RouteAwesome = "awesome"
	RouteDefault = "defaultRoute"
)

// NewAppRouter declares the application routes on a router registered with
// history:
//
//	posts/:id  getPost
//	cool       awesome
//	*actions   defaultRoute
func NewAppRouter(history *History, alerter Alerter) *Router {
	r := New(history)

	// Static patterns always compile
	_ = r.Route("posts/:id", RouteGetPost, nil)
	_ = r.Route("cool", RouteAwesome, func(m Match) {
		alerter.Alert("thats awesome")
	})
	_ = r.Route("*actions", RouteDefault, nil)

	r.On("route:"+RouteGetPost, func(m Match) {
		alerter.Alert("Get post number " + m.Args[0])
	})
	r.On("route:"+RouteDefault, func(m Match) {
		alerter.Alert("Your route was " + m.Args[0])
	})

	return r
}
