// Meridian is a failover gateway for OpenAI-compatible chat APIs.
//
// It exposes virtual endpoints, each backed by an ordered or randomized
// pool of upstream providers. Requests are relayed to the first live
// provider; failures that indicate a broken provider mark it dead and
// fail over to the next candidate, and a background prober revives dead
// providers once they answer again.
//
// Usage:
//
//	# Start the gateway with the default configuration file
//	meridian run
//
//	# Start with a custom configuration file
//	meridian run --config /etc/meridian/config.yaml
//
//	# Validate a configuration file without starting
//	meridian validate --config config.yaml
//
//	# Show version information
//	meridian version
package main

func main() {
	Execute()
}
