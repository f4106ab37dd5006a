// Package browser renews Instagram sessions by driving a Chrome instance
// through the web login form and harvesting the resulting cookies.
//
// The login flow talks to a small Driver/Page abstraction. The production
// implementation uses go-rod with the stealth plugin, either against a
// remote DevTools endpoint or a locally launched headless Chrome; tests
// substitute a scripted fake.
package browser
