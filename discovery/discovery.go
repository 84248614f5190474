// Package discovery browses multicast DNS for heat pump bridges on the local
// network and reports their identities as they appear.
package discovery

import (
	"context"

	"github.com/grandcat/zeroconf"
	log "github.com/sirupsen/logrus"

	"mheatpump2mqtt/heatpump"
)

// The wifi bridge advertises this service type, with its MAC embedded in the
// instance name.
const ServiceType = "_eteq-mheatpump._tcp"
const Domain = "local."

// Browse watches mDNS for heat pump advertisements and delivers an Identity on
// found for each usable entry until ctx is done. Entries whose name carries no
// MAC token cannot be uniquely identified; they are logged and skipped, never
// set up with a guessed identity.
func Browse(ctx context.Context, found chan<- *heatpump.Identity) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return err
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if entry == nil {
					continue
				}
				identity, err := identityFromEntry(entry)
				if err != nil {
					log.WithError(err).Warnf("ignoring discovered service %q", entry.Instance)
					continue
				}
				log.Infof("Discovered heat pump %q at %s:%d (mac %s)",
					identity.Name, identity.Host, identity.Port, identity.MAC)
				select {
				case found <- identity:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return resolver.Browse(ctx, ServiceType, Domain, entries)
}

func identityFromEntry(entry *zeroconf.ServiceEntry) (*heatpump.Identity, error) {
	host := entry.HostName
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	}
	return heatpump.NewIdentity(host, entry.Port, entry.Instance)
}
