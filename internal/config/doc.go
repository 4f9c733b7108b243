// Package config loads rota-merge settings from a YAML file, a .env file and
// environment variables, in that order of increasing precedence.
//
// Example configuration:
//
//	port: 8080
//	timeout: 10s
//	sources:
//	  - https://vchp.my.salesforce-sites.com/rota?clinicId=7014J000000kfMy
//	  - ${EXTRA_ROTA_URL:-https://vchp.my.salesforce-sites.com/rota?clinicId=7014J000000kfNS}
//	table_selector: table
//	log_level: info
package config
