package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DiscoveryService registers this instance with a Eureka discovery server so
// the API gateway can route to it, and keeps the lease alive with heartbeats.
type DiscoveryService struct {
	serverURL  string
	appName    string
	hostName   string
	port       int
	instanceID string
	stop       chan struct{}
}

// NewDiscoveryService reads EUREKA_SERVER_URL and returns a discovery client,
// or nil when discovery is not configured.
func NewDiscoveryService(appName, hostName string, port int) *DiscoveryService {
	serverURL := os.Getenv("EUREKA_SERVER_URL")
	if serverURL == "" {
		return nil
	}
	return &DiscoveryService{
		serverURL:  serverURL,
		appName:    appName,
		hostName:   hostName,
		port:       port,
		instanceID: fmt.Sprintf("%s:%s:%d", hostName, appName, port),
		stop:       make(chan struct{}),
	}
}

// Start registers the instance and begins sending heartbeats.
func (d *DiscoveryService) Start() error {
	if err := d.register(); err != nil {
		return err
	}
	go d.heartbeatLoop()
	log.Printf("Registered with Eureka as %s (%s)", d.appName, d.instanceID)
	return nil
}

// Stop halts heartbeats and removes the instance from the registry.
func (d *DiscoveryService) Stop() {
	close(d.stop)
	d.deregister()
}

func (d *DiscoveryService) register() error {
	payload := fiber.Map{
		"instance": fiber.Map{
			"instanceId": d.instanceID,
			"hostName":   d.hostName,
			"app":        d.appName,
			"ipAddr":     d.hostName,
			"status":     "UP",
			"port": fiber.Map{
				"$":        d.port,
				"@enabled": "true",
			},
			"dataCenterInfo": fiber.Map{
				"@class": "com.netflix.appinfo.InstanceInfo$DefaultDataCenterInfo",
				"name":   "MyOwn",
			},
		},
	}

	agent := fiber.Post(fmt.Sprintf("%s/apps/%s", d.serverURL, d.appName))
	agent.JSON(payload)
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("eureka registration failed: %v", errs[0])
	}
	if code != fiber.StatusNoContent && code != fiber.StatusOK {
		return fmt.Errorf("eureka registration returned status %d", code)
	}
	return nil
}

func (d *DiscoveryService) heartbeatLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			agent := fiber.Put(fmt.Sprintf("%s/apps/%s/%s", d.serverURL, d.appName, d.instanceID))
			code, _, errs := agent.Bytes()
			if len(errs) > 0 {
				log.Printf("Eureka heartbeat failed: %v", errs[0])
				continue
			}
			if code == fiber.StatusNotFound {
				// Lease expired; re-register.
				if err := d.register(); err != nil {
					log.Printf("Eureka re-registration failed: %v", err)
				}
			}
		case <-d.stop:
			return
		}
	}
}

func (d *DiscoveryService) deregister() {
	agent := fiber.Delete(fmt.Sprintf("%s/apps/%s/%s", d.serverURL, d.appName, d.instanceID))
	if _, _, errs := agent.Bytes(); len(errs) > 0 {
		log.Printf("Eureka deregistration failed: %v", errs[0])
	}
}
